// Package storage defines the blob store abstraction used to publish
// generated site artifacts (sitemaps, robots.txt) to memory, the local
// filesystem, or Google Cloud Storage.
package storage

import (
	"context"
	"io"
)

// BlobStore writes an object and returns a URI describing where it landed.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
