package config

import "github.com/metriclane/ga4mcp/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Cache.DefaultTTLSeconds <= 0 {
		return errors.Newf("cache.default_ttl_seconds must be > 0, got %d", c.Cache.DefaultTTLSeconds)
	}
	if c.Cache.PropertyTTLSeconds <= 0 {
		return errors.Newf("cache.property_ttl_seconds must be > 0, got %d", c.Cache.PropertyTTLSeconds)
	}

	if c.Resolver.FuzzyThreshold < 0 || c.Resolver.FuzzyThreshold > 1 {
		return errors.Newf("resolver.fuzzy_threshold must be within [0, 1], got %g", c.Resolver.FuzzyThreshold)
	}
	for key, names := range c.Resolver.Aliases {
		if key == "" {
			return errors.New("resolver.aliases keys cannot be empty")
		}
		if len(names) == 0 {
			return errors.Newf("resolver.aliases.%s must list at least one alias", key)
		}
		for _, name := range names {
			if name == "" {
				return errors.Newf("resolver.aliases.%s contains an empty alias", key)
			}
		}
	}

	if c.Query.DefaultLimit <= 0 {
		return errors.Newf("query.default_limit must be > 0, got %d", c.Query.DefaultLimit)
	}

	return nil
}
