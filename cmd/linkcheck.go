package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/linkcheck"
	"github.com/visitmakkah/visitmakkah/internal/logging"
)

// errLinksBroken makes the process exit non-zero after the report printed.
var errLinksBroken = errors.New("broken links found")

func newLinkcheckCmd() *cobra.Command {
	var (
		sitemapURL  string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "linkcheck",
		Short: "Check every URL listed in a sitemap",
		Long: `Fetches the sitemap index, each child sitemap and every <loc> they list,
and reports the locations that do not answer 2xx. Defaults to the sitemap of
site.base_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			if sitemapURL == "" {
				sitemapURL = cfg.Site.BaseURL + "/sitemap.xml"
			}
			logger, err := logging.New(cfg.Logging.Development, "visitmakkah-linkcheck")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			checker := linkcheck.New(linkcheck.Config{
				UserAgent:   cfg.HTTP.UserAgent,
				Timeout:     time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
				Parallelism: parallelism,
			}, logger)
			report, err := checker.Check(cmd.Context(), sitemapURL)
			if err != nil {
				return fmt.Errorf("check %s: %w", sitemapURL, err)
			}

			out := cmd.OutOrStdout()
			for _, f := range report.Failures {
				reason := f.Err
				if reason == "" {
					reason = fmt.Sprintf("status %d", f.Status)
				}
				fmt.Fprintf(out, "FAIL %s (%s) in %s\n", f.URL, reason, f.Sitemap)
			}
			fmt.Fprintf(out, "checked %d urls in %d sitemaps, %d failures\n",
				report.Checked, len(report.Sitemaps), len(report.Failures))
			if !report.OK() {
				logger.Warn("link check failed", zap.Int("failures", len(report.Failures)))
				return errLinksBroken
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitemapURL, "sitemap", "", "sitemap index URL (default <site.base_url>/sitemap.xml)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 4, "concurrent requests")
	return cmd
}
