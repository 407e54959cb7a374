package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newSitemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Sitemap maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write every sitemap to the configured blob store",
		Long: `Renders sitemap.xml and each child sitemap and uploads them under
storage.prefix on the memory, local or GCS backend.`,
		Args: cobra.NoArgs,
		RunE: runSitemapExport,
	})
	return cmd
}

func runSitemapExport(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd.Context())
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer app.Close(context.WithoutCancel(cmd.Context()))

	res, err := app.Exporter().Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("export sitemaps: %w", err)
	}

	paths := make([]string, 0, len(res.Objects))
	for p := range res.Objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, res.Objects[p])
	}
	fmt.Fprintf(out, "%d sitemaps, %d urls\n", len(paths), res.URLs)
	return nil
}
