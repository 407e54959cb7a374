package server

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/publisher"
	pubmemory "github.com/visitmakkah/visitmakkah/internal/publisher/memory"
	"github.com/visitmakkah/visitmakkah/internal/seo"
	"github.com/visitmakkah/visitmakkah/internal/storage/memory"
)

var exportTime = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func TestExportWritesIndexAndChildren(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	events := pubmemory.New()
	calls := 0
	exp := &Exporter{
		Builder: seo.NewBuilder("https://visitmakkah.com", 50),
		Posts: func(context.Context) ([]seo.PostRef, error) {
			calls++
			return []seo.PostRef{{Slug: "ihram", UpdatedAt: exportTime}}, nil
		},
		Blobs:     blobs,
		Publisher: events,
		Prefix:    "/public/",
		Now:       func() time.Time { return exportTime },
	}

	res, err := exp.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Len(t, res.Objects, len(exp.Builder.Names())+1)

	index, ok := blobs.Get("public/sitemap.xml")
	require.True(t, ok)
	require.Equal(t, sitemapContentType, index.ContentType)
	require.Contains(t, string(index.Data), "<lastmod>2026-10-19</lastmod>")

	blog, ok := blobs.Get("public/sitemaps/blog.xml")
	require.True(t, ok)
	require.Contains(t, string(blog.Data), "https://visitmakkah.com/blog/ihram")

	for _, name := range exp.Builder.Names() {
		_, ok := blobs.Get("public" + seo.ChildPath(name))
		require.True(t, ok, name)
	}
	require.Equal(t, "memory://public/sitemap.xml", res.Objects["public/sitemap.xml"])
	require.Greater(t, res.URLs, 49)

	require.Equal(t, []string{publisher.EventSitemapsBuilt}, events.Topics())
}

type failingBlobs struct{ failOn string }

func (f failingBlobs) PutObject(_ context.Context, path, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	if strings.HasSuffix(path, f.failOn) {
		return "", errors.New("bucket unavailable")
	}
	return "mock://" + path, nil
}

func TestExportStopsBeforeIndexOnUploadFailure(t *testing.T) {
	t.Parallel()

	exp := &Exporter{
		Builder: seo.NewBuilder("https://visitmakkah.com", 50),
		Blobs:   failingBlobs{failOn: "blog.xml"},
	}
	res, err := exp.Export(context.Background())
	require.ErrorContains(t, err, "bucket unavailable")
	_, wroteIndex := res.Objects["sitemap.xml"]
	require.False(t, wroteIndex)
}

func TestExportPropagatesPostErrors(t *testing.T) {
	t.Parallel()

	exp := &Exporter{
		Builder: seo.NewBuilder("https://visitmakkah.com", 50),
		Blobs:   memory.NewBlobStore(),
		Posts: func(context.Context) ([]seo.PostRef, error) {
			return nil, errors.New("sanity down")
		},
	}
	_, err := exp.Export(context.Background())
	require.ErrorContains(t, err, "sanity down")
}

func TestExportRequiresBuilderAndBlobs(t *testing.T) {
	t.Parallel()

	_, err := (&Exporter{}).Export(context.Background())
	require.Error(t, err)
}
