package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSitemapExportWritesLocalFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, `
site:
  base_url: https://visitmakkah.com
storage:
  backend: local
  local_dir: `+dir+`
  prefix: public
`)

	out, err := run(t, "--config", cfgPath, "sitemap", "export")
	require.NoError(t, err)
	require.Contains(t, out, "sitemaps,")

	index, err := os.ReadFile(filepath.Join(dir, "public", "sitemap.xml"))
	require.NoError(t, err)
	require.Contains(t, string(index), "https://visitmakkah.com/sitemaps/static.xml")
	_, err = os.Stat(filepath.Join(dir, "public", "sitemaps", "guides-umrah-guide.xml"))
	require.NoError(t, err)
}

func TestLinkcheckReportsFailures(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>` + srv.URL + `/ok</loc></url>
<url><loc>` + srv.URL + `/missing</loc></url>
</urlset>`))
		case "/ok":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfgPath := writeConfig(t, "storage:\n  backend: memory\n")
	out, err := run(t, "--config", cfgPath, "linkcheck", "--sitemap", srv.URL+"/sitemap.xml")
	require.ErrorIs(t, err, errLinksBroken)
	require.Contains(t, out, "FAIL "+srv.URL+"/missing")
	require.True(t, strings.Contains(out, "1 failures"), out)
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, "storage:\n  backend: memory\n")
	_, err := run(t, "--config", cfgPath, "migrate", "up")
	require.ErrorContains(t, err, "db.dsn is required")
}

func TestUnknownConfigFileFails(t *testing.T) {
	t.Parallel()

	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "serve")
	require.ErrorContains(t, err, "load config")
}
