package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Cache defaults
	v.SetDefault("cache.default_ttl_seconds", 300)   // 5 minutes for metadata and reports
	v.SetDefault("cache.property_ttl_seconds", 3600) // 1 hour for the property list

	// Resolver defaults
	v.SetDefault("resolver.fuzzy_threshold", 0.6)

	// Query defaults
	v.SetDefault("query.default_limit", 1000)
	v.SetDefault("query.mask_error_details", false)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}
