// Package metrics exposes Prometheus collectors for the site service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamDurationSeconds    *prometheus.HistogramVec
	sitemapURLs                *prometheus.GaugeVec
	cacheLookupsTotal          *prometheus.CounterVec
	chatSessionsTotal          *prometheus.CounterVec
	visitorEventsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_upstream_requests_total",
				Help: "Calls to managed services (sanity, supabase, chatkit), labeled by outcome.",
			},
			[]string{"service", "outcome"},
		)

		upstreamDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "site_upstream_duration_seconds",
				Help:    "Latency of calls to managed services.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"service"},
		)

		sitemapURLs = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "site_sitemap_urls",
				Help: "Number of URLs in the most recently rendered sitemap, labeled by sitemap name.",
			},
			[]string{"sitemap"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_cache_lookups_total",
				Help: "Content cache lookups, labeled by hit or miss.",
			},
			[]string{"result"},
		)

		chatSessionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_chat_sessions_total",
				Help: "ChatKit session requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		visitorEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_visitor_events_total",
				Help: "Visitor data events, labeled by kind.",
			},
			[]string{"kind"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveUpstream records one call to a managed service.
func ObserveUpstream(service string, err error, duration time.Duration) {
	Init()
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	upstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
	upstreamDurationSeconds.WithLabelValues(service).Observe(duration.Seconds())
}

// SetSitemapURLs records the size of a rendered sitemap.
func SetSitemapURLs(name string, count int) {
	Init()
	sitemapURLs.WithLabelValues(name).Set(float64(count))
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	Init()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveChatSession counts a ChatKit session request by outcome
// (created, rate_limited, error, unconfigured).
func ObserveChatSession(outcome string) {
	Init()
	chatSessionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveVisitorEvent counts a visitor data event (track, topic, message, widget).
func ObserveVisitorEvent(kind string) {
	Init()
	visitorEventsTotal.WithLabelValues(kind).Inc()
}
