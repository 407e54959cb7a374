package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/config"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 5},
		Site:      config.SiteConfig{Name: "Visit Makkah", BaseURL: "https://visitmakkah.com", GuidesPageSize: 24, IndexThreshold: 50},
		HTTP:      config.HTTPConfig{TimeoutSeconds: 5},
		Cache:     config.CacheConfig{Backend: "memory", TTLSeconds: 60},
		Storage:   config.StorageConfig{Backend: "memory", Prefix: "public"},
		Visitor:   config.VisitorConfig{CookieName: "vm_vid", CookieMaxDays: 30},
		RateLimit: config.RateLimitConfig{ChatSessionsPerMinute: 6, ChatSessionBurst: 3, TrackPerSecond: 2, TrackBurst: 10},
		Telemetry: config.TelemetryConfig{ServiceName: "visitmakkah-test", SampleRatio: 1},
	}
}

func TestBuildWithInMemoryBackends(t *testing.T) {
	t.Parallel()

	app, err := Build(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	h := app.Handler()
	for path, want := range map[string]int{
		"/healthz":            http.StatusOK,
		"/readyz":             http.StatusOK,
		"/robots.txt":         http.StatusOK,
		"/sitemap.xml":        http.StatusOK,
		"/api/blog":           http.StatusOK,
		"/guides/umrah-guide": http.StatusOK,
		"/api/nope":           http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, want, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chatkit/session", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	res, err := app.Exporter().Export(context.Background())
	require.NoError(t, err)
	require.Contains(t, res.Objects, "public/sitemap.xml")
	_, isMemory := app.Exporter().Blobs.(*memory.BlobStore)
	require.True(t, isMemory)
}

func TestSitemapURLsResolve(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	b := seo.NewBuilder(cfg.Site.BaseURL, cfg.Site.IndexThreshold)
	urls := b.StaticURLs()
	for _, k := range seo.Keywords() {
		urls = append(urls, b.GuideURLs(k)...)
	}
	require.NotEmpty(t, urls)

	h := app.Handler()
	for _, u := range urls {
		path := strings.TrimPrefix(u.Loc, cfg.Site.BaseURL)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, u.Loc)
	}
}

func TestBuildRejectsBadRedisAddress(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Cache = config.CacheConfig{Backend: "redis", RedisAddr: "127.0.0.1:1"}
	_, err := Build(context.Background(), cfg)
	require.ErrorContains(t, err, "redis cache init failed")
}
