package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visitmakkah/visitmakkah/internal/config"
	"github.com/visitmakkah/visitmakkah/internal/server"
)

// configKeyType is the key for storing the loaded Config in the context.
type configKeyType struct{}

var configKey configKeyType

// newApp is the application factory. It is a variable so tests can swap in
// a lighter build.
var newApp = server.Build

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "visitmakkah",
		Short: "Visit Makkah website, pSEO guides and pilgrim assistant API.",
		Long: `visitmakkah serves the Visit Makkah site: programmatic guide pages,
the Sanity-backed blog, ChatKit sessions and the chat/widget API. It also
exports sitemaps, checks sitemap links and manages the database schema.`,
		SilenceUsage: true,

		// Runs before every subcommand so they all see the same configuration.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, &cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env VISITMAKKAH_* overrides")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSitemapCmd())
	cmd.AddCommand(newLinkcheckCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func resolveConfig(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
