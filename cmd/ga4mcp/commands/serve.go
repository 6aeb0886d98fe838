package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/metriclane/ga4mcp/config"
	"github.com/metriclane/ga4mcp/errors"
	"github.com/metriclane/ga4mcp/ga"
	"github.com/metriclane/ga4mcp/internal/version"
	"github.com/metriclane/ga4mcp/logger"
	"github.com/metriclane/ga4mcp/mcpserver"
	"github.com/metriclane/ga4mcp/resolver"
)

// ServeCmd starts the MCP server on stdio. Stdout belongs to the protocol;
// everything diagnostic goes to stderr.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server on stdin/stdout.

Exposes analytics tools (list_properties, search_properties, query_analytics,
query_multiple_properties, get_property_metadata, query_realtime,
get_cache_status, clear_cache) to any MCP client. Configuration is read from
ga4mcp.toml and GA4MCP_* environment variables; edits to the config file
clear the caches while the server runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		log := logger.New(cfg.Log.JSON, cfg.Log.Debug)
		defer log.Sync()

		ctx := cmd.Context()
		client, err := ga.NewClient(ctx, ga.ClientOptions{
			CredentialsPath: cfg.CredentialsPath,
			DefaultTTL:      time.Duration(cfg.Cache.DefaultTTLSeconds) * time.Second,
			PropertyTTL:     time.Duration(cfg.Cache.PropertyTTLSeconds) * time.Second,
			Logger:          log,
		})
		if err != nil {
			return err
		}

		res := resolver.New(client, resolver.Options{
			FuzzyThreshold: &cfg.Resolver.FuzzyThreshold,
			Aliases:        cfg.Resolver.Aliases,
			Logger:         log,
		})

		srv := mcpserver.New(mcpserver.Options{
			Resolver:         res,
			Analytics:        client,
			DefaultLimit:     cfg.Query.DefaultLimit,
			MaskErrorDetails: cfg.Query.MaskErrorDetails,
			Version:          version.Get().Version,
			Logger:           log,
		})

		// Watch the config file while serving. A reload cannot swap the
		// resolver's threshold or aliases in place, but dropping the caches
		// makes the next calls pick up fresh data.
		if path := config.ConfigFilePath(); path != "" {
			watcher, err := config.NewWatcher(path, log)
			if err != nil {
				log.Warnw("config watcher unavailable", "path", path, "error", err)
			} else {
				watcher.OnReload(func(*config.Config) error {
					client.ClearCache("")
					res.ClearSnapshot()
					log.Infow("caches cleared after config reload")
					return nil
				})
				watcher.Start()
				defer watcher.Stop()
			}
		}

		return srv.Serve()
	},
}
