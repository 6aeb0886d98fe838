// Package config holds the ga4mcp configuration surface: credentials,
// cache TTLs, resolver tuning, and query behavior. Values come from
// ga4mcp.toml, GA4MCP_* environment variables, and built-in defaults.
package config

// Config is the root configuration.
type Config struct {
	CredentialsPath string         `mapstructure:"credentials_path"` // Google service account JSON key
	Cache           CacheConfig    `mapstructure:"cache"`
	Resolver        ResolverConfig `mapstructure:"resolver"`
	Query           QueryConfig    `mapstructure:"query"`
	Log             LogConfig      `mapstructure:"log"`
}

// CacheConfig sets expiry policy for the response cache.
type CacheConfig struct {
	DefaultTTLSeconds  int `mapstructure:"default_ttl_seconds"`  // metadata and report entries (default: 300)
	PropertyTTLSeconds int `mapstructure:"property_ttl_seconds"` // discovered property list (default: 3600)
}

// ResolverConfig tunes property resolution.
type ResolverConfig struct {
	// FuzzyThreshold is the score a fuzzy candidate must strictly exceed
	// to be accepted. Must be within [0, 1].
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`

	// Aliases maps a property's canonical name or display name to
	// alternative names users may type. Example:
	//
	//	[resolver.aliases]
	//	mysite = ["primary site", "main"]
	Aliases map[string][]string `mapstructure:"aliases"`
}

// QueryConfig controls report execution.
type QueryConfig struct {
	DefaultLimit     int  `mapstructure:"default_limit"`      // row limit when the caller passes none (default: 1000)
	MaskErrorDetails bool `mapstructure:"mask_error_details"` // replace upstream API errors with a generic message
}

// LogConfig controls diagnostic output. Logs always go to stderr; stdout
// carries the MCP protocol stream.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}
