package ga

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metriclane/ga4mcp/errors"
)

func TestBuildFilterStringOps(t *testing.T) {
	tests := []struct {
		op        FilterOp
		matchType string
	}{
		{FilterExact, "EXACT"},
		{FilterContains, "CONTAINS"},
		{FilterBeginsWith, "BEGINS_WITH"},
		{FilterEndsWith, "ENDS_WITH"},
		{FilterRegexp, "FULL_REGEXP"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f, err := buildFilter(Filter{Field: "country", Op: tt.op, Value: "US"})
			require.NoError(t, err)
			require.NotNil(t, f.StringFilter)
			assert.Equal(t, "country", f.FieldName)
			assert.Equal(t, tt.matchType, f.StringFilter.MatchType)
			assert.Equal(t, "US", f.StringFilter.Value)
		})
	}
}

func TestBuildFilterNumericOps(t *testing.T) {
	f, err := buildFilter(Filter{Field: "sessions", Op: FilterGreaterThan, Value: "100"})
	require.NoError(t, err)
	require.NotNil(t, f.NumericFilter)
	assert.Equal(t, "GREATER_THAN", f.NumericFilter.Operation)
	assert.Equal(t, 100.0, f.NumericFilter.Value.DoubleValue)
}

func TestBuildFilterNumericRejectsNonNumber(t *testing.T) {
	_, err := buildFilter(Filter{Field: "sessions", Op: FilterEqual, Value: "many"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestBuildFilterInList(t *testing.T) {
	f, err := buildFilter(Filter{Field: "country", Op: FilterInList, Values: []string{"US", "CA"}})
	require.NoError(t, err)
	require.NotNil(t, f.InListFilter)
	assert.Equal(t, []string{"US", "CA"}, f.InListFilter.Values)

	_, err = buildFilter(Filter{Field: "country", Op: FilterInList})
	assert.Error(t, err, "empty IN_LIST must be rejected")
}

func TestBuildFilterUnknownOperator(t *testing.T) {
	_, err := buildFilter(Filter{Field: "country", Op: "LIKE", Value: "US"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestBuildFilterMissingField(t *testing.T) {
	_, err := buildFilter(Filter{Op: FilterExact, Value: "US"})
	assert.Error(t, err)
}

func TestBuildFilterExpressionSingleVsAndGroup(t *testing.T) {
	single, err := buildFilterExpression([]Filter{
		{Field: "country", Op: FilterExact, Value: "US"},
	})
	require.NoError(t, err)
	assert.NotNil(t, single.Filter)
	assert.Nil(t, single.AndGroup)

	multi, err := buildFilterExpression([]Filter{
		{Field: "country", Op: FilterExact, Value: "US"},
		{Field: "deviceCategory", Op: FilterExact, Value: "mobile"},
	})
	require.NoError(t, err)
	require.NotNil(t, multi.AndGroup)
	assert.Len(t, multi.AndGroup.Expressions, 2)
}

func TestBuildOrderBy(t *testing.T) {
	metrics := []string{"activeUsers", "sessions"}
	asc := false

	byMetric := buildOrderBy(OrderSpec{Field: "sessions"}, metrics)
	require.NotNil(t, byMetric.Metric)
	assert.Equal(t, "sessions", byMetric.Metric.MetricName)
	assert.True(t, byMetric.Desc, "omitted desc means descending")

	byDimension := buildOrderBy(OrderSpec{Field: "date", Desc: &asc}, metrics)
	require.NotNil(t, byDimension.Dimension)
	assert.Equal(t, "date", byDimension.Dimension.DimensionName)
	assert.False(t, byDimension.Desc)
}

func TestOrderSpecOmittedDescDefaultsToDescending(t *testing.T) {
	// A caller asking to order by a metric without saying which direction
	// wants "top N", not "bottom N".
	var spec OrderSpec
	require.NoError(t, json.Unmarshal([]byte(`{"field":"sessions"}`), &spec))
	assert.True(t, buildOrderBy(spec, []string{"sessions"}).Desc)

	require.NoError(t, json.Unmarshal([]byte(`{"field":"sessions","desc":false}`), &spec))
	assert.False(t, buildOrderBy(spec, []string{"sessions"}).Desc)

	require.NoError(t, json.Unmarshal([]byte(`{"field":"sessions","desc":true}`), &spec))
	assert.True(t, buildOrderBy(spec, []string{"sessions"}).Desc)
}
