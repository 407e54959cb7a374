package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestInitIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := Init(ctx, Config{ServiceName: "visitmakkah-test", Version: "dev"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := Init(ctx, Config{ServiceName: "ignored"})
	require.NoError(t, err)
	require.NotNil(t, second)
}

func TestMiddlewareStartsSpan(t *testing.T) {
	t.Parallel()

	_, err := Init(context.Background(), Config{ServiceName: "visitmakkah-test"})
	require.NoError(t, err)

	var sawSpan bool
	h := Middleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanContextFromContext(r.Context()).IsValid()
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, sawSpan)
}

func TestSamplerRatio(t *testing.T) {
	t.Parallel()

	require.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
