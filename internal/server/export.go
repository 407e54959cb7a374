package server

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/publisher"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/storage"
)

const sitemapContentType = "application/xml; charset=utf-8"

// PostSource lists the blog posts that belong in the blog sitemap.
type PostSource func(ctx context.Context) ([]seo.PostRef, error)

// Exporter renders every sitemap and writes it to a blob store so a static
// host or CDN can serve them without hitting the API.
type Exporter struct {
	Builder   *seo.Builder
	Posts     PostSource
	Blobs     storage.BlobStore
	Publisher publisher.Publisher
	Prefix    string
	Now       func() time.Time
	Logger    *zap.Logger
}

// ExportResult lists where each sitemap landed, keyed by object path.
type ExportResult struct {
	Objects map[string]string
	URLs    int
}

// Export writes the sitemap index and every child sitemap. Blog posts are
// fetched once and shared by all children.
func (e *Exporter) Export(ctx context.Context) (ExportResult, error) {
	if e.Builder == nil || e.Blobs == nil {
		return ExportResult{}, fmt.Errorf("sitemap exporter is not configured")
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var (
		refs    []seo.PostRef
		fetched bool
	)
	posts := func() ([]seo.PostRef, error) {
		if fetched || e.Posts == nil {
			return refs, nil
		}
		var err error
		refs, err = e.Posts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blog posts: %w", err)
		}
		fetched = true
		return refs, nil
	}

	result := ExportResult{Objects: make(map[string]string)}
	for _, name := range e.Builder.Names() {
		body, n, err := e.Builder.Render(name, posts)
		if err != nil {
			return result, fmt.Errorf("render %s: %w", name, err)
		}
		if err := e.put(ctx, seo.ChildPath(name), body, &result); err != nil {
			return result, err
		}
		metrics.SetSitemapURLs(name, n)
		result.URLs += n
		logger.Debug("sitemap exported", zap.String("name", name), zap.Int("urls", n))
	}
	// The index goes last so it never points at a child that failed to upload.
	if err := e.put(ctx, seo.IndexName, e.Builder.Index(now()), &result); err != nil {
		return result, err
	}

	logger.Info("sitemaps exported",
		zap.Int("objects", len(result.Objects)),
		zap.Int("urls", result.URLs),
		zap.String("prefix", e.Prefix),
	)
	if e.Publisher != nil {
		ev := publisher.Event{
			Type:       publisher.EventSitemapsBuilt,
			At:         now().UTC(),
			Attributes: map[string]string{"objects": fmt.Sprint(len(result.Objects))},
		}
		if _, err := e.Publisher.Publish(ctx, ev.Type, ev); err != nil {
			logger.Warn("publish sitemap export event failed", zap.Error(err))
		}
	}
	return result, nil
}

func (e *Exporter) put(ctx context.Context, name, body string, result *ExportResult) error {
	objectPath := path.Join(strings.Trim(e.Prefix, "/"), strings.TrimPrefix(name, "/"))
	uri, err := e.Blobs.PutObject(ctx, objectPath, sitemapContentType, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectPath, err)
	}
	result.Objects[objectPath] = uri
	return nil
}
