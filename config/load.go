package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/metriclane/ga4mcp/errors"
)

const configFileName = "ga4mcp.toml"

// Load reads configuration from defaults, config files, and environment
// variables. Precedence, lowest to highest: defaults, user config
// (~/.ga4mcp/ga4mcp.toml), project config (ga4mcp.toml found by walking up
// from the working directory), GA4MCP_* environment variables.
//
// Every call builds a fresh Viper instance; there is no package-level
// cached config.
func Load() (*Config, error) {
	return LoadWithViper(NewViper())
}

// LoadWithViper unmarshals configuration from a prepared Viper instance.
// Tests use this to inject settings without touching the filesystem.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, plus defaults
// and environment variables.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// NewViper builds a Viper instance with defaults, env binding, and any
// discovered config files merged in precedence order.
func NewViper() *viper.Viper {
	v := viper.New()

	bindEnv(v)
	SetDefaults(v)

	// Merge user config first so the project config can override it.
	if home, err := os.UserHomeDir(); err == nil {
		mergeFile(v, filepath.Join(home, ".ga4mcp", configFileName))
	}
	if path := findProjectConfig(); path != "" {
		mergeFile(v, path)
	}

	return v
}

// ConfigFilePath returns the config file that Load would read, preferring
// the project file over the user file. Empty when neither exists. Used to
// point the file watcher at the right target.
func ConfigFilePath() string {
	if path := findProjectConfig(); path != "" {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".ga4mcp", configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("GA4MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The standard Google credentials variable works without the prefix.
	_ = v.BindEnv("credentials_path", "GA4MCP_CREDENTIALS_PATH", "GOOGLE_APPLICATION_CREDENTIALS")
}

func mergeFile(v *viper.Viper, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	_ = v.MergeInConfig()
}

// findProjectConfig searches for ga4mcp.toml by walking up the directory
// tree from the working directory.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
