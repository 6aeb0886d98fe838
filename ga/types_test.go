package ga

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    string
	}{
		{"lowercases", "Acme Blog", "acmeblog"},
		{"strips punctuation", "Acme - Blog (Prod)", "acmeblogprod"},
		{"keeps digits", "Shop 2.0", "shop20"},
		{"empty input", "", ""},
		{"symbols only", "---!!!", ""},
		{"truncates to 30", strings.Repeat("ab", 40), strings.Repeat("ab", 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalName(tt.display))
		})
	}
}

func TestCanonicalNameIdempotent(t *testing.T) {
	for _, s := range []string{"Acme Blog", "shop-2.0", "ÜBER Store", strings.Repeat("x y", 30)} {
		once := CanonicalName(s)
		assert.Equal(t, once, CanonicalName(once), "canonicalization must be idempotent for %q", s)
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "123", lastSegment("accounts/123"))
	assert.Equal(t, "456", lastSegment("properties/456"))
	assert.Equal(t, "plain", lastSegment("plain"))
	assert.Equal(t, "", lastSegment(""))
}

func TestCoerceMetricValue(t *testing.T) {
	assert.Equal(t, int64(42), coerceMetricValue("42"))
	assert.Equal(t, 3.5, coerceMetricValue("3.5"))
	assert.Equal(t, "n/a", coerceMetricValue("n/a"))
}
