package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metriclane/ga4mcp/config"
	"github.com/metriclane/ga4mcp/errors"
	"github.com/metriclane/ga4mcp/ga"
	"github.com/metriclane/ga4mcp/logger"
	"github.com/metriclane/ga4mcp/resolver"
)

// PropertiesCmd groups property discovery commands
var PropertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List or search accessible GA4 properties",
}

var propertiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every GA4 property visible to the configured credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, log, err := buildResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()

		properties, err := res.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		if len(properties) == 0 {
			pterm.Warning.Println("No properties accessible with the configured credentials")
			return nil
		}

		for _, p := range properties {
			pterm.Printf("  %s %s %s\n",
				pterm.LightMagenta(p.ID),
				pterm.White(p.DisplayName),
				pterm.Gray(fmt.Sprintf("(account %s)", p.AccountID)))
		}
		pterm.Printf("\n%s\n", pterm.Gray(fmt.Sprintf("%d properties", len(properties))))
		return nil
	},
}

var propertiesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search properties by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, log, err := buildResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()

		matches, err := res.Search(cmd.Context(), args[0], resolver.DefaultSearchResults)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			pterm.Warning.Printf("No properties match %q\n", args[0])
			return nil
		}

		for _, m := range matches {
			pterm.Printf("  %s %s %s\n",
				pterm.LightMagenta(m.Property.ID),
				pterm.White(m.Property.DisplayName),
				pterm.Gray(fmt.Sprintf("(%.3f via %s)", m.Confidence, m.Stage)))
		}
		return nil
	},
}

func init() {
	PropertiesCmd.AddCommand(propertiesListCmd)
	PropertiesCmd.AddCommand(propertiesSearchCmd)
}

// buildResolver wires a resolver over a fresh analytics client from the
// current configuration.
func buildResolver(ctx context.Context) (*resolver.Resolver, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}

	log := logger.New(cfg.Log.JSON, cfg.Log.Debug)

	client, err := ga.NewClient(ctx, ga.ClientOptions{
		CredentialsPath: cfg.CredentialsPath,
		Logger:          log,
	})
	if err != nil {
		return nil, nil, err
	}

	return resolver.New(client, resolver.Options{
		FuzzyThreshold: &cfg.Resolver.FuzzyThreshold,
		Aliases:        cfg.Resolver.Aliases,
		Logger:         log,
	}), log, nil
}
