package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/chatkit"
	"github.com/visitmakkah/visitmakkah/internal/config"
	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/store"
)

// IDGenerator issues identifiers for new records.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock abstracts time for handlers.
type Clock interface {
	Now() time.Time
}

// Limiter decides whether a key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Hasher pseudonymizes client IP addresses.
type Hasher interface {
	HashString(s string) string
}

// ContentService serves blog posts.
type ContentService interface {
	ListPosts(ctx context.Context, offset, limit int) (content.PostList, error)
	GetPost(ctx context.Context, slug string) (content.Post, error)
	PostSlugs(ctx context.Context) ([]content.PostSummary, error)
	Purge(ctx context.Context) error
}

// SessionCreator opens ChatKit sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, user string) (chatkit.Session, error)
}

// PageRoutes mounts the HTML pages onto the router.
type PageRoutes interface {
	Register(r chi.Router)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Deps groups the collaborators of the Server.
type Deps struct {
	Repos          store.Repositories
	Content        ContentService
	Sessions       SessionCreator
	Publisher      publisher.Publisher
	SessionLimiter Limiter
	TrackLimiter   Limiter
	IDs            IDGenerator
	Clock          Clock
	IPHasher       Hasher
	Pages          PageRoutes
	ReadyChecks    map[string]ReadinessCheck
}

// Server wires HTTP handlers to the repositories and upstream clients.
type Server struct {
	router   chi.Router
	deps     Deps
	cfg      config.Config
	sitemaps *seo.Builder
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.Discard{}
	}
	s := &Server{
		deps:     deps,
		cfg:      cfg,
		sitemaps: seo.NewBuilder(cfg.Site.BaseURL, cfg.Site.IndexThreshold),
		logger:   logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(s.logger))
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/robots.txt", s.robots)
	r.Get("/sitemap.xml", s.sitemapIndex)
	r.Get("/sitemaps/{name}", s.sitemap)

	r.Route("/api", func(r chi.Router) {
		r.Post("/visitors/track", s.trackVisitor)

		r.Group(func(r chi.Router) {
			r.Use(s.visitorMiddleware)
			r.Get("/visitors/me", s.currentVisitor)

			r.Route("/chat/topics", func(r chi.Router) {
				r.Get("/", s.listTopics)
				r.Post("/", s.createTopic)
				r.Route("/{topic_id}", func(r chi.Router) {
					r.Patch("/", s.renameTopic)
					r.Delete("/", s.deleteTopic)
					r.Get("/messages", s.listMessages)
					r.Post("/messages", s.appendMessage)
				})
			})

			r.Route("/widgets", func(r chi.Router) {
				r.Get("/", s.listWidgets)
				r.Post("/", s.saveWidget)
				r.Delete("/{widget_id}", s.deleteWidget)
			})

			r.Post("/chatkit/session", s.createChatSession)
		})

		r.Get("/blog", s.listPosts)
		r.Get("/blog/{slug}", s.getPost)
		r.Get("/countries", s.listCountries)
	})

	r.Route("/admin", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/cache/purge", s.purgeCache)
	})

	if deps.Pages != nil {
		deps.Pages.Register(r)
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, check := range s.deps.ReadyChecks {
		if err := check(r.Context()); err != nil {
			logFor(r).Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			failed[name] = "unavailable"
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
