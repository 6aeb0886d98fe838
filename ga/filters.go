package ga

import (
	"strconv"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"

	"github.com/metriclane/ga4mcp/errors"
)

// FilterOp enumerates the supported filter operators. The set is closed:
// buildFilter switches exhaustively and rejects anything outside it, so a
// malformed spec fails loudly instead of silently matching nothing.
type FilterOp string

const (
	FilterExact       FilterOp = "EXACT"
	FilterContains    FilterOp = "CONTAINS"
	FilterBeginsWith  FilterOp = "BEGINS_WITH"
	FilterEndsWith    FilterOp = "ENDS_WITH"
	FilterRegexp      FilterOp = "REGEXP"
	FilterGreaterThan FilterOp = "GREATER_THAN"
	FilterLessThan    FilterOp = "LESS_THAN"
	FilterEqual       FilterOp = "EQUAL"
	FilterInList      FilterOp = "IN_LIST"
)

// Filter is one dimension-filter condition. Value carries string and
// numeric operands; Values carries the IN_LIST operand.
type Filter struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"operator"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// OrderSpec orders report rows by a field. Whether the field names a metric
// or a dimension is decided against the queried metrics at build time.
// An omitted Desc means descending, the usual "top N by metric" intent.
type OrderSpec struct {
	Field string `json:"field"`
	Desc  *bool  `json:"desc,omitempty"`
}

func (o OrderSpec) descending() bool {
	if o.Desc == nil {
		return true
	}
	return *o.Desc
}

// buildFilterExpression translates filters into the Data API expression
// tree. A single condition maps directly; multiple conditions AND together.
func buildFilterExpression(filters []Filter) (*analyticsdata.FilterExpression, error) {
	if len(filters) == 1 {
		f, err := buildFilter(filters[0])
		if err != nil {
			return nil, err
		}
		return &analyticsdata.FilterExpression{Filter: f}, nil
	}

	exprs := make([]*analyticsdata.FilterExpression, 0, len(filters))
	for _, spec := range filters {
		f, err := buildFilter(spec)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, &analyticsdata.FilterExpression{Filter: f})
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}, nil
}

func buildFilter(spec Filter) (*analyticsdata.Filter, error) {
	if spec.Field == "" {
		return nil, errors.NewInvalidRequestError("filter is missing a field name")
	}

	f := &analyticsdata.Filter{FieldName: spec.Field}

	switch spec.Op {
	case FilterExact, FilterContains, FilterBeginsWith, FilterEndsWith:
		f.StringFilter = &analyticsdata.StringFilter{
			MatchType: string(spec.Op),
			Value:     spec.Value,
		}
	case FilterRegexp:
		f.StringFilter = &analyticsdata.StringFilter{
			MatchType: "FULL_REGEXP",
			Value:     spec.Value,
		}
	case FilterGreaterThan, FilterLessThan, FilterEqual:
		v, err := strconv.ParseFloat(spec.Value, 64)
		if err != nil {
			return nil, errors.NewInvalidRequestError(
				"filter on %q: operator %s needs a numeric value, got %q", spec.Field, spec.Op, spec.Value)
		}
		f.NumericFilter = &analyticsdata.NumericFilter{
			Operation: string(spec.Op),
			Value:     &analyticsdata.NumericValue{DoubleValue: v, ForceSendFields: []string{"DoubleValue"}},
		}
	case FilterInList:
		if len(spec.Values) == 0 {
			return nil, errors.NewInvalidRequestError("filter on %q: IN_LIST needs at least one value", spec.Field)
		}
		f.InListFilter = &analyticsdata.InListFilter{Values: spec.Values}
	default:
		return nil, errors.NewInvalidRequestError("filter on %q: unknown operator %q", spec.Field, spec.Op)
	}

	return f, nil
}

// buildOrderBy maps an order spec onto metric or dimension ordering. Fields
// that appear in the queried metrics order by metric value; everything else
// is treated as a dimension.
func buildOrderBy(spec OrderSpec, metrics []string) *analyticsdata.OrderBy {
	for _, m := range metrics {
		if m == spec.Field {
			return &analyticsdata.OrderBy{
				Metric: &analyticsdata.MetricOrderBy{MetricName: spec.Field},
				Desc:   spec.descending(),
			}
		}
	}
	return &analyticsdata.OrderBy{
		Dimension: &analyticsdata.DimensionOrderBy{DimensionName: spec.Field},
		Desc:      spec.descending(),
	}
}
