package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/metriclane/ga4mcp/errors"
	"github.com/metriclane/ga4mcp/ga"
	"github.com/metriclane/ga4mcp/resolver"
)

// matchPayload is the wire form of a resolver match. Confidence is rounded
// to 3 decimals here, at the presentation boundary only.
type matchPayload struct {
	Property   ga.Property `json:"property"`
	Confidence float64     `json:"confidence"`
	MatchedOn  string      `json:"matched_on"`
}

func toMatchPayload(m resolver.Match) matchPayload {
	return matchPayload{
		Property:   m.Property,
		Confidence: round3(m.Confidence),
		MatchedOn:  string(m.Stage),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult renders a failure. Provider errors are masked when configured;
// resolution and validation errors always pass through in full.
func (s *Server) errorResult(contextMsg string, err error) *mcp.CallToolResult {
	if s.maskErrors && errors.IsProviderError(err) {
		s.log.Errorw(contextMsg, "error", err)
		return mcp.NewToolResultError(contextMsg + ": upstream analytics request failed")
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", contextMsg, err))
}

// handleListProperties handles list_properties tool calls
func (s *Server) handleListProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	properties, err := s.resolver.ListAll(ctx)
	if err != nil {
		return s.errorResult("failed to list properties", err), nil
	}

	return jsonResult(struct {
		Properties []ga.Property `json:"properties"`
		Count      int           `json:"count"`
	}{
		Properties: properties,
		Count:      len(properties),
	})
}

// handleSearchProperties handles search_properties tool calls
func (s *Server) handleSearchProperties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := s.resolver.Search(ctx, query, resolver.DefaultSearchResults)
	if err != nil {
		return s.errorResult("search failed", err), nil
	}

	payload := struct {
		Query     string         `json:"query"`
		Matches   []matchPayload `json:"matches"`
		Count     int            `json:"count"`
		BestMatch *matchPayload  `json:"best_match,omitempty"`
	}{
		Query:   query,
		Matches: make([]matchPayload, 0, len(matches)),
		Count:   len(matches),
	}
	for _, m := range matches {
		payload.Matches = append(payload.Matches, toMatchPayload(m))
	}
	if len(payload.Matches) > 0 {
		payload.BestMatch = &payload.Matches[0]
	}

	return jsonResult(payload)
}

// handleQueryAnalytics handles query_analytics tool calls
func (s *Server) handleQueryAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Property   string        `json:"property"`
		Metrics    []string      `json:"metrics"`
		StartDate  string        `json:"start_date"`
		EndDate    string        `json:"end_date"`
		Dimensions []string      `json:"dimensions"`
		Filters    []ga.Filter   `json:"filters"`
		OrderBy    *ga.OrderSpec `json:"order_by"`
		Limit      int64         `json:"limit"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Property == "" {
		return mcp.NewToolResultError("property is required"), nil
	}
	if len(args.Metrics) == 0 {
		return mcp.NewToolResultError("metrics must list at least one metric"), nil
	}
	if args.Limit <= 0 {
		args.Limit = int64(s.defaultLimit)
	}

	match, err := s.resolver.Resolve(ctx, args.Property)
	if err != nil {
		return s.errorResult("query failed", err), nil
	}
	if match == nil {
		return mcp.NewToolResultError(s.notFoundMessage(ctx, args.Property)), nil
	}

	start, end, err := s.dates.ParseRange(args.StartDate, args.EndDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.analytics.RunReport(ctx, ga.ReportRequest{
		PropertyID: match.Property.ID,
		Metrics:    args.Metrics,
		StartDate:  start,
		EndDate:    end,
		Dimensions: args.Dimensions,
		Filters:    args.Filters,
		OrderBy:    args.OrderBy,
		Limit:      args.Limit,
	})
	if err != nil {
		return s.errorResult("query failed", err), nil
	}

	return jsonResult(struct {
		*ga.Report
		PropertyName         string       `json:"property_name"`
		PropertyMatch        matchPayload `json:"property_match"`
		DateRangeDescription string       `json:"date_range_description"`
	}{
		Report:               report,
		PropertyName:         match.Property.DisplayName,
		PropertyMatch:        toMatchPayload(*match),
		DateRangeDescription: s.dates.RangeDescription(start, end),
	})
}

// notFoundMessage builds a resolution failure message with "did you mean"
// suggestions from a low-floor search.
func (s *Server) notFoundMessage(ctx context.Context, property string) string {
	suggestions, err := s.resolver.Search(ctx, property, 3)
	if err != nil || len(suggestions) == 0 {
		return fmt.Sprintf("Property %q not found. Did you mean: No similar properties found", property)
	}

	names := make([]string, 0, len(suggestions))
	for _, m := range suggestions {
		names = append(names, m.Property.DisplayName)
	}
	return fmt.Sprintf("Property %q not found. Did you mean: %s", property, strings.Join(names, ", "))
}

// handleQueryMultiple handles query_multiple_properties tool calls
func (s *Server) handleQueryMultiple(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Properties []string `json:"properties"`
		Metrics    []string `json:"metrics"`
		StartDate  string   `json:"start_date"`
		EndDate    string   `json:"end_date"`
		Dimensions []string `json:"dimensions"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.Properties) == 0 {
		return mcp.NewToolResultError("properties must list at least one property"), nil
	}
	if len(args.Metrics) == 0 {
		return mcp.NewToolResultError("metrics must list at least one metric"), nil
	}

	start, end, err := s.dates.ParseRange(args.StartDate, args.EndDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type propertyResult struct {
		PropertyID   string                   `json:"property_id"`
		PropertyName string                   `json:"property_name"`
		Data         []map[string]interface{} `json:"data"`
		RowCount     int                      `json:"row_count"`
	}
	type propertyError struct {
		Property string `json:"property"`
		Error    string `json:"error"`
	}

	results := make([]propertyResult, 0, len(args.Properties))
	var failures []propertyError
	totals := make(map[string]float64, len(args.Metrics))
	for _, m := range args.Metrics {
		totals[m] = 0
	}

	for _, name := range args.Properties {
		match, err := s.resolver.Resolve(ctx, name)
		if err != nil {
			return s.errorResult("query failed", err), nil
		}
		if match == nil {
			failures = append(failures, propertyError{Property: name, Error: "Property not found"})
			continue
		}

		report, err := s.analytics.RunReport(ctx, ga.ReportRequest{
			PropertyID: match.Property.ID,
			Metrics:    args.Metrics,
			StartDate:  start,
			EndDate:    end,
			Dimensions: args.Dimensions,
			Limit:      int64(s.defaultLimit),
		})
		if err != nil {
			failures = append(failures, propertyError{
				Property: match.Property.DisplayName,
				Error:    failureText(s.maskErrors, err),
			})
			continue
		}

		// Without dimensions the response is a single summary row; fold it
		// into the cross-property totals.
		if len(report.Rows) > 0 && len(args.Dimensions) == 0 {
			for _, metric := range args.Metrics {
				switch v := report.Rows[0][metric].(type) {
				case int64:
					totals[metric] += float64(v)
				case float64:
					totals[metric] += v
				}
			}
		}

		results = append(results, propertyResult{
			PropertyID:   match.Property.ID,
			PropertyName: match.Property.DisplayName,
			Data:         report.Rows,
			RowCount:     report.RowCount,
		})
	}

	payload := struct {
		DateRange struct {
			StartDate   string `json:"start_date"`
			EndDate     string `json:"end_date"`
			Description string `json:"description"`
		} `json:"date_range"`
		Metrics    []string         `json:"metrics"`
		Dimensions []string         `json:"dimensions"`
		Results    []propertyResult `json:"results"`
		Errors     []propertyError  `json:"errors,omitempty"`
		Summary    map[string]any   `json:"summary"`
	}{
		Metrics:    args.Metrics,
		Dimensions: args.Dimensions,
		Results:    results,
		Errors:     failures,
	}
	if payload.Dimensions == nil {
		payload.Dimensions = []string{}
	}
	payload.DateRange.StartDate = start
	payload.DateRange.EndDate = end
	payload.DateRange.Description = s.dates.RangeDescription(start, end)
	payload.Summary = map[string]any{
		"properties_queried":    len(args.Properties),
		"properties_successful": len(results),
	}
	if len(args.Dimensions) == 0 {
		payload.Summary["totals"] = totals
	}

	return jsonResult(payload)
}

// failureText renders a per-property failure for the errors list, honoring
// provider error masking.
func failureText(mask bool, err error) string {
	if mask && errors.IsProviderError(err) {
		return "upstream analytics request failed"
	}
	return err.Error()
}

// handleGetMetadata handles get_property_metadata tool calls
func (s *Server) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	property, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	match, err := s.resolver.Resolve(ctx, property)
	if err != nil {
		return s.errorResult("failed to get metadata", err), nil
	}
	if match == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Property %q not found", property)), nil
	}

	md, err := s.analytics.GetMetadata(ctx, match.Property.ID)
	if err != nil {
		return s.errorResult("failed to get metadata", err), nil
	}

	return jsonResult(struct {
		PropertyID       string         `json:"property_id"`
		PropertyName     string         `json:"property_name"`
		Dimensions       []ga.FieldInfo `json:"dimensions"`
		Metrics          []ga.FieldInfo `json:"metrics"`
		CustomDimensions []ga.FieldInfo `json:"custom_dimensions"`
		CustomMetrics    []ga.FieldInfo `json:"custom_metrics"`
		TotalDimensions  int            `json:"total_dimensions"`
		TotalMetrics     int            `json:"total_metrics"`
	}{
		PropertyID:       match.Property.ID,
		PropertyName:     match.Property.DisplayName,
		Dimensions:       md.Dimensions,
		Metrics:          md.Metrics,
		CustomDimensions: md.CustomDimensions,
		CustomMetrics:    md.CustomMetrics,
		TotalDimensions:  len(md.Dimensions) + len(md.CustomDimensions),
		TotalMetrics:     len(md.Metrics) + len(md.CustomMetrics),
	})
}

// handleQueryRealtime handles query_realtime tool calls
func (s *Server) handleQueryRealtime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Property   string   `json:"property"`
		Metrics    []string `json:"metrics"`
		Dimensions []string `json:"dimensions"`
		Limit      int64    `json:"limit"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Property == "" {
		return mcp.NewToolResultError("property is required"), nil
	}
	if args.Limit <= 0 {
		args.Limit = 100
	}

	match, err := s.resolver.Resolve(ctx, args.Property)
	if err != nil {
		return s.errorResult("realtime query failed", err), nil
	}
	if match == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Property %q not found", args.Property)), nil
	}

	report, err := s.analytics.RunRealtimeReport(ctx, match.Property.ID, args.Metrics, args.Dimensions, args.Limit)
	if err != nil {
		return s.errorResult("realtime query failed", err), nil
	}

	return jsonResult(struct {
		*ga.RealtimeReport
		PropertyName string `json:"property_name"`
	}{
		RealtimeReport: report,
		PropertyName:   match.Property.DisplayName,
	})
}

// handleCacheStatus handles get_cache_status tool calls
func (s *Server) handleCacheStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.analytics.CacheStats())
}

// handleClearCache handles clear_cache tool calls
func (s *Server) handleClearCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := request.GetString("pattern", "")

	cleared := s.analytics.ClearCache(pattern)

	// Clearing everything also drops the resolver's snapshot so the next
	// resolution refetches the property list.
	if pattern == "" {
		s.resolver.ClearSnapshot()
	}

	message := fmt.Sprintf("Cleared %d cache entries", cleared)
	if pattern != "" {
		message += fmt.Sprintf(" matching %q", pattern)
	}

	return jsonResult(struct {
		ClearedEntries int    `json:"cleared_entries"`
		Pattern        string `json:"pattern,omitempty"`
		Message        string `json:"message"`
	}{
		ClearedEntries: cleared,
		Pattern:        pattern,
		Message:        message,
	})
}
