package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil ||
		upstreamRequestsTotal == nil || sitemapURLs == nil || cacheLookupsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotalFor("sanity", OutcomeError))
	ObserveUpstream("sanity", errors.New("boom"), 10*time.Millisecond)
	ObserveUpstream("sanity", nil, 10*time.Millisecond)

	if got := testutil.ToFloat64(upstreamRequestsTotalFor("sanity", OutcomeError)); got != before+1 {
		t.Errorf("expected sanity error count %f, got %f", before+1, got)
	}
}

func TestSetSitemapURLs(t *testing.T) {
	SetSitemapURLs("static.xml", 13)
	if got := testutil.ToFloat64(sitemapURLs.WithLabelValues("static.xml")); got != 13 {
		t.Errorf("expected gauge 13, got %f", got)
	}
	SetSitemapURLs("static.xml", 9)
	if got := testutil.ToFloat64(sitemapURLs.WithLabelValues("static.xml")); got != 9 {
		t.Errorf("expected gauge 9, got %f", got)
	}
}

func TestObserveCacheLookup(t *testing.T) {
	Init()
	hits := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss"))

	ObserveCacheLookup(true)
	ObserveCacheLookup(false)
	ObserveCacheLookup(false)

	if got := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("expected %f hits, got %f", hits+1, got)
	}
	if got := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("miss")); got != misses+2 {
		t.Errorf("expected %f misses, got %f", misses+2, got)
	}
}

func upstreamRequestsTotalFor(service, outcome string) prometheus.Counter {
	Init()
	return upstreamRequestsTotal.WithLabelValues(service, outcome)
}
