// Package ga wraps the Google Analytics Admin and Data APIs behind a
// time-bounded cache, and defines the record types shared with the
// property resolver.
package ga

import (
	"strings"
	"unicode"
)

// canonicalNameMax caps the precomputed canonical name length. Queries are
// canonicalized without the cap; only the stored record name is truncated.
const canonicalNameMax = 30

// Property is an immutable GA4 property record. Name is the canonical
// matching key derived from DisplayName at snapshot build time; it is not
// guaranteed unique across a snapshot.
type Property struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	AccountID   string `json:"account_id"`
	WebsiteURL  string `json:"website_url,omitempty"`
}

// CanonicalName derives the matching key for a display name: lower-cased,
// stripped to letters and digits, truncated to 30 runes. Deterministic and
// idempotent.
func CanonicalName(display string) string {
	var b strings.Builder
	b.Grow(len(display))
	n := 0
	for _, r := range strings.ToLower(display) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		n++
		if n == canonicalNameMax {
			break
		}
	}
	return b.String()
}

// FieldInfo describes one available dimension or metric.
type FieldInfo struct {
	APIName     string `json:"api_name"`
	UIName      string `json:"ui_name"`
	Description string `json:"description"`
	Custom      bool   `json:"custom"`
}

// Metadata lists the dimensions and metrics available on a property,
// standard and custom separated.
type Metadata struct {
	PropertyID       string      `json:"property_id"`
	Dimensions       []FieldInfo `json:"dimensions"`
	Metrics          []FieldInfo `json:"metrics"`
	CustomDimensions []FieldInfo `json:"custom_dimensions"`
	CustomMetrics    []FieldInfo `json:"custom_metrics"`
}

// DateRange is a resolved report window in YYYY-MM-DD form.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReportRequest describes a single-property report query.
type ReportRequest struct {
	PropertyID string
	Metrics    []string
	StartDate  string
	EndDate    string
	Dimensions []string
	Filters    []Filter
	OrderBy    *OrderSpec
	Limit      int64
}

// Report is a shaped report response. Rows map header names to values;
// metric values that parse as numbers are coerced to int64 or float64.
type Report struct {
	PropertyID string                   `json:"property_id"`
	DateRange  DateRange                `json:"date_range"`
	Dimensions []string                 `json:"dimensions"`
	Metrics    []string                 `json:"metrics"`
	Rows       []map[string]interface{} `json:"rows"`
	RowCount   int                      `json:"row_count"`
	TotalRows  int64                    `json:"total_rows"`
}

// RealtimeReport is a shaped realtime (last 30 minutes) response.
type RealtimeReport struct {
	PropertyID      string                   `json:"property_id"`
	LookbackMinutes int                      `json:"lookback_minutes"`
	Dimensions      []string                 `json:"dimensions"`
	Metrics         []string                 `json:"metrics"`
	Rows            []map[string]interface{} `json:"rows"`
	RowCount        int                      `json:"row_count"`
}
