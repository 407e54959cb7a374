// Package linkcheck crawls a sitemap index with Colly and reports every
// listed location that does not answer with a 2xx status.
package linkcheck

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	kindKey     = "kind"
	kindSitemap = "sitemap"
	kindPage    = "page"
	parentKey   = "parent"
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Parallelism int
}

// Result is the outcome of one checked location.
type Result struct {
	URL     string
	Sitemap string
	Status  int
	Err     string
}

// Report summarizes a run.
type Report struct {
	Sitemaps []string
	Checked  int
	Failures []Result
}

// OK reports whether every location answered 2xx.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// Checker walks sitemaps.
type Checker struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
}

// New builds a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{cfg: cfg, transport: newHTTPTransport(), logger: logger.Named("linkcheck")}
}

type collector struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	sitemaps []string
	checked  int
	failures []Result
}

func (s *collector) markSeen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

func (s *collector) record(kind, url, parent string, status int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == kindSitemap && err == nil && status < 300 {
		s.sitemaps = append(s.sitemaps, url)
	}
	if kind == kindPage {
		s.checked++
	}
	if err != nil || status >= 300 {
		res := Result{URL: url, Sitemap: parent, Status: status}
		if err != nil {
			res.Err = err.Error()
		}
		s.failures = append(s.failures, res)
	}
}

// Check fetches sitemapURL, follows child sitemaps and requests every page
// location. A failing sitemap document is itself reported as a failure.
func (c *Checker) Check(ctx context.Context, sitemapURL string) (Report, error) {
	col := colly.NewCollector(
		colly.Async(true),
		colly.StdlibContext(ctx),
	)
	col.WithTransport(c.transport)
	col.SetRequestTimeout(c.cfg.Timeout)
	if c.cfg.UserAgent != "" {
		col.UserAgent = c.cfg.UserAgent
	}
	if err := col.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: c.cfg.Parallelism}); err != nil {
		return Report{}, fmt.Errorf("configure collector: %w", err)
	}

	// enqueue deduplicates locations itself.
	col.AllowURLRevisit = true
	state := &collector{seen: make(map[string]struct{})}
	enqueue := func(kind, url, parent string) {
		if !state.markSeen(url) {
			return
		}
		rctx := colly.NewContext()
		rctx.Put(kindKey, kind)
		rctx.Put(parentKey, parent)
		if err := col.Request(http.MethodGet, url, nil, rctx, nil); err != nil {
			state.record(kind, url, parent, 0, err)
		}
	}

	col.OnXML("//sitemap/loc", func(e *colly.XMLElement) {
		if e.Request.Ctx.Get(kindKey) != kindSitemap {
			return
		}
		enqueue(kindSitemap, e.Text, e.Request.URL.String())
	})
	col.OnXML("//url/loc", func(e *colly.XMLElement) {
		if e.Request.Ctx.Get(kindKey) != kindSitemap {
			return
		}
		enqueue(kindPage, e.Text, e.Request.URL.String())
	})
	col.OnResponse(func(r *colly.Response) {
		state.record(r.Ctx.Get(kindKey), r.Request.URL.String(), r.Ctx.Get(parentKey), r.StatusCode, nil)
	})
	col.OnError(func(r *colly.Response, err error) {
		c.logger.Debug("location failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err))
		state.record(r.Ctx.Get(kindKey), r.Request.URL.String(), r.Ctx.Get(parentKey), r.StatusCode, err)
	})

	done := make(chan struct{})
	go func() {
		enqueue(kindSitemap, sitemapURL, "")
		col.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return Report{}, fmt.Errorf("link check canceled: %w", ctx.Err())
	case <-done:
	}
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("link check canceled: %w", err)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	sort.Strings(state.sitemaps)
	sort.Slice(state.failures, func(i, j int) bool { return state.failures[i].URL < state.failures[j].URL })
	return Report{Sitemaps: state.sitemaps, Checked: state.checked, Failures: state.failures}, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
