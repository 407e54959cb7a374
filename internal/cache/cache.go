// Package cache provides the content cache used in front of the Sanity API.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with a TTL.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Nop never stores anything. It backs the "none" cache backend.
type Nop struct{}

// Get implements Cache.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// DeletePrefix implements Cache.
func (Nop) DeletePrefix(context.Context, string) error { return nil }
