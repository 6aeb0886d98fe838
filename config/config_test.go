package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Cache.DefaultTTLSeconds)
	assert.Equal(t, 3600, cfg.Cache.PropertyTTLSeconds)
	assert.Equal(t, 0.6, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, 1000, cfg.Query.DefaultLimit)
	assert.False(t, cfg.Query.MaskErrorDetails)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ga4mcp.toml")
	content := `
credentials_path = "/secrets/ga.json"

[cache]
default_ttl_seconds = 120

[resolver]
fuzzy_threshold = 0.8

[resolver.aliases]
mysite = ["primary site", "main"]

[query]
mask_error_details = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/secrets/ga.json", cfg.CredentialsPath)
	assert.Equal(t, 120, cfg.Cache.DefaultTTLSeconds)
	assert.Equal(t, 3600, cfg.Cache.PropertyTTLSeconds, "file leaves property TTL at default")
	assert.Equal(t, 0.8, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, []string{"primary site", "main"}, cfg.Resolver.Aliases["mysite"])
	assert.True(t, cfg.Query.MaskErrorDetails)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ga4mcp.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\ndefault_ttl_seconds = 120\n"), 0o644))

	t.Setenv("GA4MCP_CACHE_DEFAULT_TTL_SECONDS", "45")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Cache.DefaultTTLSeconds)
}

func TestGoogleCredentialsEnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ga4mcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/adc.json")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/secrets/adc.json", cfg.CredentialsPath)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero default ttl",
			mutate:  func(c *Config) { c.Cache.DefaultTTLSeconds = 0 },
			wantErr: "cache.default_ttl_seconds",
		},
		{
			name:    "negative property ttl",
			mutate:  func(c *Config) { c.Cache.PropertyTTLSeconds = -1 },
			wantErr: "cache.property_ttl_seconds",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Resolver.FuzzyThreshold = 1.5 },
			wantErr: "resolver.fuzzy_threshold",
		},
		{
			name:    "threshold below zero",
			mutate:  func(c *Config) { c.Resolver.FuzzyThreshold = -0.1 },
			wantErr: "resolver.fuzzy_threshold",
		},
		{
			name:   "threshold boundaries are inclusive",
			mutate: func(c *Config) { c.Resolver.FuzzyThreshold = 1.0 },
		},
		{
			name:    "alias with no names",
			mutate:  func(c *Config) { c.Resolver.Aliases = map[string][]string{"mysite": {}} },
			wantErr: "resolver.aliases.mysite",
		},
		{
			name:    "alias with empty name",
			mutate:  func(c *Config) { c.Resolver.Aliases = map[string][]string{"mysite": {""}} },
			wantErr: "resolver.aliases.mysite",
		},
		{
			name:    "zero query limit",
			mutate:  func(c *Config) { c.Query.DefaultLimit = 0 },
			wantErr: "query.default_limit",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
