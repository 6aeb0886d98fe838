// Package mcpserver exposes the analytics client and property resolver as
// MCP tools over stdio. Tool results are JSON payloads; logs never touch
// stdout because it carries the protocol stream.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/metriclane/ga4mcp/cache"
	"github.com/metriclane/ga4mcp/dates"
	"github.com/metriclane/ga4mcp/ga"
	"github.com/metriclane/ga4mcp/resolver"
)

// Analytics is the slice of ga.Client the tool handlers need. Narrowed to
// an interface so handler tests can run against a fake.
type Analytics interface {
	GetMetadata(ctx context.Context, propertyID string) (*ga.Metadata, error)
	RunReport(ctx context.Context, req ga.ReportRequest) (*ga.Report, error)
	RunRealtimeReport(ctx context.Context, propertyID string, metrics, dimensions []string, limit int64) (*ga.RealtimeReport, error)
	ClearCache(pattern string) int
	CacheStats() cache.Stats
}

// Options wires the server's collaborators.
type Options struct {
	Resolver  *resolver.Resolver
	Analytics Analytics
	Dates     *dates.Parser

	// DefaultLimit caps report rows when the caller passes no limit.
	DefaultLimit int

	// MaskErrorDetails replaces upstream API error text with a generic
	// message in tool results. Resolution and validation errors are always
	// shown in full; they contain nothing sensitive.
	MaskErrorDetails bool

	Version string
	Logger  *zap.SugaredLogger
}

// Server wraps the resolver and analytics client behind MCP tools.
type Server struct {
	resolver     *resolver.Resolver
	analytics    Analytics
	dates        *dates.Parser
	defaultLimit int
	maskErrors   bool
	log          *zap.SugaredLogger
	server       *server.MCPServer
}

// New creates the MCP server and registers all tools.
func New(opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 1000
	}
	if opts.Dates == nil {
		opts.Dates = dates.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		resolver:     opts.Resolver,
		analytics:    opts.Analytics,
		dates:        opts.Dates,
		defaultLimit: opts.DefaultLimit,
		maskErrors:   opts.MaskErrorDetails,
		log:          opts.Logger,
	}

	s.server = server.NewMCPServer(
		"ga4mcp",
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(
			"Query Google Analytics 4 across multiple properties. Properties can be "+
				"referenced by ID, name, or fuzzy match; dates accept natural language "+
				"(today, 7daysAgo, last month). Start with list_properties to discover "+
				"what is available, then query_analytics to fetch data. "+
				"Common metrics: activeUsers, sessions, screenPageViews, eventCount, bounceRate. "+
				"Common dimensions: date, country, city, deviceCategory, browser, pagePath.",
		),
	)
	s.registerTools()
	return s
}

// Serve runs the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	s.log.Infow("starting MCP server on stdio")
	return server.ServeStdio(s.server)
}

// registerTools registers all analytics tools
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_properties",
		mcp.WithDescription("List all accessible GA4 properties. Use this first to discover "+
			"property IDs and names usable with the other tools."),
	)
	s.server.AddTool(listTool, s.handleListProperties)

	searchTool := mcp.NewTool("search_properties",
		mcp.WithDescription("Search for properties by name with fuzzy matching. Returns "+
			"matches ranked by confidence; use when unsure of the exact name."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (property name, partial name, or keyword)"),
		),
	)
	s.server.AddTool(searchTool, s.handleSearchProperties)

	queryTool := mcp.NewTool("query_analytics",
		mcp.WithDescription("Query GA4 analytics data for a single property. Supports fuzzy "+
			"property matching, natural language dates, filtering, and ordering."),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name, ID, or alias (fuzzy matching supported)"),
		),
		mcp.WithArray("metrics",
			mcp.Required(),
			mcp.Description("Metrics to query (e.g., ['activeUsers', 'sessions'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date (YYYY-MM-DD, 'today', 'yesterday', '7daysAgo', etc.)"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("End date (YYYY-MM-DD, 'today', 'yesterday', etc.)"),
		),
		mcp.WithArray("dimensions",
			mcp.Description("Dimensions to group by (e.g., ['date', 'country'])"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("filters",
			mcp.Description("Filter conditions [{field, operator, value}]"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithObject("order_by",
			mcp.Description("Ordering {field: string, desc: bool} (desc defaults to true)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default 1000)"),
		),
	)
	s.server.AddTool(queryTool, s.handleQueryAnalytics)

	multiTool := mcp.NewTool("query_multiple_properties",
		mcp.WithDescription("Query the same metrics across multiple properties for comparison. "+
			"Returns per-property breakdowns plus aggregated totals."),
		mcp.WithArray("properties",
			mcp.Required(),
			mcp.Description("List of property names or IDs to query"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("metrics",
			mcp.Required(),
			mcp.Description("Metrics to query across all properties"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date for all queries"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("End date for all queries"),
		),
		mcp.WithArray("dimensions",
			mcp.Description("Optional dimensions for grouping"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.server.AddTool(multiTool, s.handleQueryMultiple)

	metadataTool := mcp.NewTool("get_property_metadata",
		mcp.WithDescription("Get available dimensions and metrics for a GA4 property, "+
			"standard and custom. Use this to discover what data exists before querying."),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name or ID"),
		),
	)
	s.server.AddTool(metadataTool, s.handleGetMetadata)

	realtimeTool := mcp.NewTool("query_realtime",
		mcp.WithDescription("Query real-time GA4 data (last 30 minutes). Returns current "+
			"active users and other live metrics."),
		mcp.WithString("property",
			mcp.Required(),
			mcp.Description("Property name or ID"),
		),
		mcp.WithArray("metrics",
			mcp.Description("Metrics to query (default: activeUsers)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("dimensions",
			mcp.Description("Dimensions for grouping"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows (default 100)"),
		),
	)
	s.server.AddTool(realtimeTool, s.handleQueryRealtime)

	cacheStatusTool := mcp.NewTool("get_cache_status",
		mcp.WithDescription("Get current cache contents for debugging: entry counts and keys."),
	)
	s.server.AddTool(cacheStatusTool, s.handleCacheStatus)

	clearCacheTool := mcp.NewTool("clear_cache",
		mcp.WithDescription("Clear cached data to force fresh retrieval from the GA4 API. "+
			"Clears everything, or only entries whose key matches a pattern."),
		mcp.WithString("pattern",
			mcp.Description("Optional pattern to match (e.g., 'metadata:', 'properties')"),
		),
	)
	s.server.AddTool(clearCacheTool, s.handleClearCache)
}
