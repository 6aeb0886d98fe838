package ga

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	analyticsadmin "google.golang.org/api/analyticsadmin/v1beta"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/metriclane/ga4mcp/cache"
	"github.com/metriclane/ga4mcp/errors"
)

const (
	propertiesCacheKey  = "properties"
	metadataCachePrefix = "metadata:"

	realtimeLookbackMinutes = 30
)

// ClientOptions configures a Client. Zero TTLs fall back to the documented
// defaults (300s general, 3600s for the property list and metadata).
type ClientOptions struct {
	// CredentialsPath points to a service account JSON file. Empty means
	// Application Default Credentials.
	CredentialsPath string
	DefaultTTL      time.Duration
	PropertyTTL     time.Duration
	Logger          *zap.SugaredLogger
}

// Client queries the GA4 Admin and Data APIs. Responses for property
// discovery and metadata are cached; report queries always go upstream.
type Client struct {
	admin       *analyticsadmin.Service
	data        *analyticsdata.Service
	cache       *cache.Store
	propertyTTL time.Duration
	log         *zap.SugaredLogger
}

// NewClient builds the Admin and Data API services eagerly so credential
// problems surface at startup rather than on the first tool call.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	if opts.PropertyTTL <= 0 {
		opts.PropertyTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsPath))
	}
	clientOpts = append(clientOpts, option.WithScopes(analyticsadmin.AnalyticsReadonlyScope))

	admin, err := analyticsadmin.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.WrapProvider(err, "failed to initialize analytics admin client")
	}
	data, err := analyticsdata.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.WrapProvider(err, "failed to initialize analytics data client")
	}

	return &Client{
		admin:       admin,
		data:        data,
		cache:       cache.New(opts.DefaultTTL),
		propertyTTL: opts.PropertyTTL,
		log:         opts.Logger,
	}, nil
}

// DiscoverProperties lists every GA4 property visible to the credentials,
// walking all accounts. The result is cached under a fixed key for the
// property TTL, so repeated resolutions inside the window cost no API call.
func (c *Client) DiscoverProperties(ctx context.Context) ([]Property, error) {
	if cached, ok := c.cache.Get(propertiesCacheKey); ok {
		return cached.([]Property), nil
	}

	accounts, err := c.admin.Accounts.List().Context(ctx).Do()
	if err != nil {
		return nil, errors.WrapProvider(err, "failed to list analytics accounts")
	}

	var properties []Property
	for _, account := range accounts.Accounts {
		accountID := lastSegment(account.Name)

		resp, err := c.admin.Properties.List().
			Filter("parent:" + account.Name).
			Context(ctx).Do()
		if err != nil {
			return nil, errors.WrapProvider(err, "failed to list properties for account "+accountID)
		}

		for _, p := range resp.Properties {
			properties = append(properties, Property{
				ID:          lastSegment(p.Name),
				Name:        CanonicalName(p.DisplayName),
				DisplayName: p.DisplayName,
				AccountID:   accountID,
			})
		}
	}

	c.cache.Set(propertiesCacheKey, properties, c.propertyTTL)
	c.log.Infow("discovered GA4 properties", "count", len(properties))
	return properties, nil
}

// GetMetadata returns the dimensions and metrics available on a property,
// split into standard and custom. Cached per property for the property TTL.
func (c *Client) GetMetadata(ctx context.Context, propertyID string) (*Metadata, error) {
	cacheKey := metadataCachePrefix + propertyID
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*Metadata), nil
	}

	resp, err := c.data.Properties.GetMetadata("properties/" + propertyID + "/metadata").
		Context(ctx).Do()
	if err != nil {
		return nil, errors.WrapProvider(err, "failed to get metadata for property "+propertyID)
	}

	md := &Metadata{
		PropertyID:       propertyID,
		Dimensions:       []FieldInfo{},
		Metrics:          []FieldInfo{},
		CustomDimensions: []FieldInfo{},
		CustomMetrics:    []FieldInfo{},
	}
	for _, dim := range resp.Dimensions {
		info := FieldInfo{
			APIName:     dim.ApiName,
			UIName:      dim.UiName,
			Description: dim.Description,
			Custom:      dim.CustomDefinition,
		}
		if info.Custom {
			md.CustomDimensions = append(md.CustomDimensions, info)
		} else {
			md.Dimensions = append(md.Dimensions, info)
		}
	}
	for _, metric := range resp.Metrics {
		info := FieldInfo{
			APIName:     metric.ApiName,
			UIName:      metric.UiName,
			Description: metric.Description,
			Custom:      metric.CustomDefinition,
		}
		if info.Custom {
			md.CustomMetrics = append(md.CustomMetrics, info)
		} else {
			md.Metrics = append(md.Metrics, info)
		}
	}

	c.cache.Set(cacheKey, md, c.propertyTTL)
	return md, nil
}

// RunReport executes a report query. Results are not cached.
func (c *Client) RunReport(ctx context.Context, req ReportRequest) (*Report, error) {
	apiReq := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}},
		Limit: req.Limit,
	}
	for _, m := range req.Metrics {
		apiReq.Metrics = append(apiReq.Metrics, &analyticsdata.Metric{Name: m})
	}
	for _, d := range req.Dimensions {
		apiReq.Dimensions = append(apiReq.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	if len(req.Filters) > 0 {
		expr, err := buildFilterExpression(req.Filters)
		if err != nil {
			return nil, err
		}
		apiReq.DimensionFilter = expr
	}
	if req.OrderBy != nil {
		apiReq.OrderBys = []*analyticsdata.OrderBy{buildOrderBy(*req.OrderBy, req.Metrics)}
	}

	resp, err := c.data.Properties.RunReport("properties/"+req.PropertyID, apiReq).
		Context(ctx).Do()
	if err != nil {
		return nil, errors.WrapProvider(err, "report failed for property "+req.PropertyID)
	}

	dimHeaders := make([]string, 0, len(resp.DimensionHeaders))
	for _, h := range resp.DimensionHeaders {
		dimHeaders = append(dimHeaders, h.Name)
	}
	metricHeaders := make([]string, 0, len(resp.MetricHeaders))
	for _, h := range resp.MetricHeaders {
		metricHeaders = append(metricHeaders, h.Name)
	}

	rows := shapeRows(resp.Rows, dimHeaders, metricHeaders)
	return &Report{
		PropertyID: req.PropertyID,
		DateRange:  DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
		Dimensions: dimHeaders,
		Metrics:    metricHeaders,
		Rows:       rows,
		RowCount:   len(rows),
		TotalRows:  resp.RowCount,
	}, nil
}

// RunRealtimeReport queries the last 30 minutes of activity. An empty
// metrics list defaults to activeUsers.
func (c *Client) RunRealtimeReport(ctx context.Context, propertyID string, metrics, dimensions []string, limit int64) (*RealtimeReport, error) {
	if len(metrics) == 0 {
		metrics = []string{"activeUsers"}
	}

	apiReq := &analyticsdata.RunRealtimeReportRequest{Limit: limit}
	for _, m := range metrics {
		apiReq.Metrics = append(apiReq.Metrics, &analyticsdata.Metric{Name: m})
	}
	for _, d := range dimensions {
		apiReq.Dimensions = append(apiReq.Dimensions, &analyticsdata.Dimension{Name: d})
	}

	resp, err := c.data.Properties.RunRealtimeReport("properties/"+propertyID, apiReq).
		Context(ctx).Do()
	if err != nil {
		return nil, errors.WrapProvider(err, "realtime report failed for property "+propertyID)
	}

	dimHeaders := make([]string, 0, len(resp.DimensionHeaders))
	for _, h := range resp.DimensionHeaders {
		dimHeaders = append(dimHeaders, h.Name)
	}
	metricHeaders := make([]string, 0, len(resp.MetricHeaders))
	for _, h := range resp.MetricHeaders {
		metricHeaders = append(metricHeaders, h.Name)
	}

	rows := shapeRows(resp.Rows, dimHeaders, metricHeaders)
	return &RealtimeReport{
		PropertyID:      propertyID,
		LookbackMinutes: realtimeLookbackMinutes,
		Dimensions:      dimHeaders,
		Metrics:         metricHeaders,
		Rows:            rows,
		RowCount:        len(rows),
	}, nil
}

// ClearCache removes cached responses whose key contains pattern (all
// entries when pattern is empty) and returns the count removed.
func (c *Client) ClearCache(pattern string) int {
	return c.cache.Clear(pattern)
}

// CacheStats reports the current cache contents.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// shapeRows flattens API rows into header-keyed maps, coercing metric
// values that parse cleanly into int64 or float64.
func shapeRows(apiRows []*analyticsdata.Row, dimHeaders, metricHeaders []string) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(apiRows))
	for _, row := range apiRows {
		data := make(map[string]interface{}, len(dimHeaders)+len(metricHeaders))
		for i, dv := range row.DimensionValues {
			if i < len(dimHeaders) {
				data[dimHeaders[i]] = dv.Value
			}
		}
		for i, mv := range row.MetricValues {
			if i < len(metricHeaders) {
				data[metricHeaders[i]] = coerceMetricValue(mv.Value)
			}
		}
		rows = append(rows, data)
	}
	return rows
}

func coerceMetricValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// lastSegment extracts the trailing id from resource names like
// "accounts/123" or "properties/456".
func lastSegment(resourceName string) string {
	if resourceName == "" {
		return ""
	}
	parts := strings.Split(resourceName, "/")
	return parts[len(parts)-1]
}
