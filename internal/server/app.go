// Package server builds the application's dependency graph and runs the
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/api"
	"github.com/visitmakkah/visitmakkah/internal/cache"
	"github.com/visitmakkah/visitmakkah/internal/chatkit"
	"github.com/visitmakkah/visitmakkah/internal/clock/system"
	"github.com/visitmakkah/visitmakkah/internal/config"
	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/hash/sha256"
	"github.com/visitmakkah/visitmakkah/internal/id/uuid"
	"github.com/visitmakkah/visitmakkah/internal/logging"
	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/policy/ratelimit"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	memorypublisher "github.com/visitmakkah/visitmakkah/internal/publisher/memory"
	gcppublisher "github.com/visitmakkah/visitmakkah/internal/publisher/pubsub"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/storage"
	gcsstorage "github.com/visitmakkah/visitmakkah/internal/storage/gcs"
	localstorage "github.com/visitmakkah/visitmakkah/internal/storage/local"
	memorystorage "github.com/visitmakkah/visitmakkah/internal/storage/memory"
	pgstore "github.com/visitmakkah/visitmakkah/internal/storage/postgres"
	"github.com/visitmakkah/visitmakkah/internal/store"
	"github.com/visitmakkah/visitmakkah/internal/supabase"
	"github.com/visitmakkah/visitmakkah/internal/telemetry"
	"github.com/visitmakkah/visitmakkah/internal/web"
)

const (
	serviceName         = "visitmakkah"
	shutdownTimeout     = 10 * time.Second
	memoryEventLimit    = 1000
	rateLimiterMaxKeys  = 10000
	rateLimiterIdleTime = 10 * time.Minute
)

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	apiServer *api.Server
	exporter  *Exporter
	content   *content.Service

	pubsubClient    *pubsub.Client
	pubsubPublisher *pubsub.Publisher
	gcsClient       *gcs.Client
	pgStore         *pgstore.Store
	redisCache      *cache.Redis
	telemetryStop   telemetry.Shutdown
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Exporter returns the sitemap exporter bound to the configured blob store.
func (a *App) Exporter() *Exporter { return a.exporter }

// Handler returns the root HTTP handler with tracing applied.
func (a *App) Handler() http.Handler {
	return telemetry.Middleware(serviceName)(a.apiServer.Handler())
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}

// Close releases every client opened by Build.
func (a *App) Close(ctx context.Context) {
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.telemetryStop != nil {
		if err := a.telemetryStop(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}

// Build creates the application's dependencies from cfg.
func Build(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	logger, err := logging.New(cfg.Logging.Development, serviceName)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.Close(context.Background())
		}
	}()

	app.telemetryStop, err = telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.Telemetry.Version,
		ProjectID:   cfg.Telemetry.ProjectID,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("base_url", cfg.Site.BaseURL),
	)

	readyChecks := make(map[string]api.ReadinessCheck)

	blobs, err := setupStorage(ctx, app)
	if err != nil {
		return nil, err
	}
	repos, err := setupRepositories(ctx, app, readyChecks)
	if err != nil {
		return nil, err
	}
	contentCache, err := setupCache(ctx, app, readyChecks)
	if err != nil {
		return nil, err
	}
	app.content, err = setupContent(app, contentCache)
	if err != nil {
		return nil, err
	}
	events, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}

	pages, err := web.New(web.Config{
		SiteName:       cfg.Site.Name,
		BaseURL:        cfg.Site.BaseURL,
		IndexThreshold: cfg.Site.IndexThreshold,
		GuidesPageSize: cfg.Site.GuidesPageSize,
		ChatEnabled:    cfg.ChatKit.APIKey != "" && cfg.ChatKit.WorkflowID != "",
		ChatScriptURL:  cfg.ChatKit.ScriptURL,
	}, app.content, logger.Named("web"))
	if err != nil {
		return nil, fmt.Errorf("web pages init failed: %w", err)
	}

	deps := api.Deps{
		Repos:          repos,
		Content:        app.content,
		Publisher:      events,
		SessionLimiter: newLimiter(ratelimit.PerMinute(cfg.RateLimit.ChatSessionsPerMinute), cfg.RateLimit.ChatSessionBurst),
		TrackLimiter:   newLimiter(cfg.RateLimit.TrackPerSecond, cfg.RateLimit.TrackBurst),
		IDs:            uuid.New(),
		Clock:          system.New(),
		IPHasher:       sha256.NewSalted(cfg.Visitor.IPSalt),
		Pages:          pages,
		ReadyChecks:    readyChecks,
	}
	sessions := chatkit.New(chatkit.Config{
		APIKey:     cfg.ChatKit.APIKey,
		WorkflowID: cfg.ChatKit.WorkflowID,
		BaseURL:    cfg.ChatKit.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout()},
	})
	if sessions.Configured() {
		deps.Sessions = sessions
	} else {
		logger.Warn("chatkit is not configured, session endpoint will answer 503")
	}

	app.apiServer = api.NewServer(deps, *cfg, logger)
	app.exporter = &Exporter{
		Builder:   seo.NewBuilder(cfg.Site.BaseURL, cfg.Site.IndexThreshold),
		Posts:     postRefs(app.content),
		Blobs:     blobs,
		Publisher: events,
		Prefix:    cfg.Storage.Prefix,
		Logger:    logger.Named("sitemaps"),
	}
	return app, nil
}

func newLimiter(rps float64, burst int) *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Config{
		RPS:     rps,
		Burst:   burst,
		MaxKeys: rateLimiterMaxKeys,
		IdleTTL: rateLimiterIdleTime,
	})
}

func postRefs(svc *content.Service) PostSource {
	return func(ctx context.Context) ([]seo.PostRef, error) {
		posts, err := svc.PostSlugs(ctx)
		if err != nil {
			return nil, err
		}
		refs := make([]seo.PostRef, 0, len(posts))
		for _, p := range posts {
			refs = append(refs, seo.PostRef{Slug: p.Slug, UpdatedAt: p.LastModified()})
		}
		return refs, nil
	}
}

func setupStorage(ctx context.Context, app *App) (storage.BlobStore, error) {
	cfg := app.cfg.Storage
	switch cfg.Backend {
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.gcsClient = client
		blobs, err := gcsstorage.New(client, gcsstorage.Config{
			Bucket:       cfg.GCSBucket,
			CacheControl: "public, max-age=3600",
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.logger.Info("using GCS storage backend", zap.String("bucket", cfg.GCSBucket))
		return blobs, nil
	case "local":
		blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Info("using local storage backend", zap.String("path", cfg.LocalDir))
		return blobs, nil
	default:
		app.logger.Info("using in-memory storage backend")
		return memorystorage.NewBlobStore(), nil
	}
}

func setupRepositories(
	ctx context.Context,
	app *App,
	checks map[string]api.ReadinessCheck,
) (store.Repositories, error) {
	cfg := app.cfg
	switch {
	case cfg.UsesPostgres():
		pg, err := pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetimeMinutes) * time.Minute,
		})
		if err != nil {
			return store.Repositories{}, fmt.Errorf("postgres init failed: %w", err)
		}
		app.pgStore = pg
		checks["postgres"] = pg.Ping
		app.logger.Info("using postgres repositories")
		return pg.Bundle(), nil
	case cfg.UsesSupabaseREST():
		client, err := supabase.New(supabase.Config{
			URL:        cfg.Supabase.URL,
			ServiceKey: cfg.Supabase.ServiceKey,
			Schema:     cfg.Supabase.Schema,
			UserAgent:  cfg.HTTP.UserAgent,
			HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout()},
		}, app.logger.Named("supabase"))
		if err != nil {
			return store.Repositories{}, fmt.Errorf("supabase init failed: %w", err)
		}
		checks["supabase"] = client.Ping
		app.logger.Info("using supabase REST repositories", zap.String("url", cfg.Supabase.URL))
		return client.Bundle(), nil
	default:
		app.logger.Warn("no database configured, chat and widget data will not survive restarts")
		return memorystorage.NewRepositories().Bundle(), nil
	}
}

func setupCache(ctx context.Context, app *App, checks map[string]api.ReadinessCheck) (cache.Cache, error) {
	cfg := app.cfg.Cache
	switch cfg.Backend {
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache init failed: %w", err)
		}
		app.redisCache = r
		checks["redis"] = r.Ping
		app.logger.Info("using redis content cache", zap.String("addr", cfg.RedisAddr))
		return r, nil
	case "none":
		app.logger.Info("content cache disabled")
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(), nil
	}
}

func setupContent(app *App, c cache.Cache) (*content.Service, error) {
	cfg := app.cfg
	var querier content.Querier = content.Unconfigured{}
	if cfg.Sanity.ProjectID != "" {
		client, err := content.NewClient(content.ClientConfig{
			ProjectID:  cfg.Sanity.ProjectID,
			Dataset:    cfg.Sanity.Dataset,
			APIVersion: cfg.Sanity.APIVersion,
			Token:      cfg.Sanity.Token,
			UseCDN:     cfg.Sanity.UseCDN,
			UserAgent:  cfg.HTTP.UserAgent,
			HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout()},
		}, app.logger.Named("sanity"))
		if err != nil {
			return nil, fmt.Errorf("sanity client init failed: %w", err)
		}
		querier = client
	} else {
		app.logger.Warn("sanity project is not configured, the blog will be empty")
	}
	return content.NewService(querier, c, cfg.CacheTTL(), app.logger.Named("content")), nil
}

func setupPublisher(ctx context.Context, app *App) (publisher.Publisher, error) {
	cfg := app.cfg.PubSub
	if cfg.TopicName == "" || cfg.ProjectID == "" {
		app.logger.Info("no Pub/Sub topic configured, keeping recent events in memory")
		return memorypublisher.NewBounded(memoryEventLimit), nil
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubClient = client
	app.pubsubPublisher = client.Publisher(cfg.TopicName)
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("topic", cfg.TopicName),
	)
	return gcppublisher.New(app.pubsubPublisher), nil
}
