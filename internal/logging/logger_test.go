// Package logging includes tests for the zap logger helpers.
package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true, "visitmakkah")
	if err != nil {
		t.Fatalf("New(development) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false, "visitmakkah")
	if err != nil {
		t.Fatalf("New(production) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

// TestContextHelpers checks the request-scoped logger round trip.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if FromContext(ctx) == nil {
		t.Fatal("expected no-op logger for empty context")
	}
	if RequestID(ctx) != "" {
		t.Fatal("expected empty request id")
	}

	core, observed := observer.New(zap.InfoLevel)
	ctx, logger := WithRequestID(ctx, zap.New(core), "req-1")
	if RequestID(ctx) != "req-1" {
		t.Fatalf("RequestID() = %q, want req-1", RequestID(ctx))
	}
	FromContext(ctx).Info("hello")
	logger.Info("again")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-1" {
		t.Fatalf("expected request_id field, got %v", got)
	}
}

func TestFromContextOr(t *testing.T) {
	t.Parallel()

	fallback := zap.NewNop()
	if got := FromContextOr(context.Background(), fallback); got != fallback {
		t.Fatal("expected fallback logger for empty context")
	}
	stored := zap.NewExample()
	if got := FromContextOr(WithContext(context.Background(), stored), fallback); got != stored {
		t.Fatal("expected stored logger")
	}
}
