package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/visitmakkah/visitmakkah/internal/cache"
	"github.com/visitmakkah/visitmakkah/internal/metrics"
)

// CachePrefix namespaces every content cache key.
const CachePrefix = "content:"

const (
	defaultListLimit = 12
	maxListLimit     = 100
)

// Querier runs GROQ queries. *Client satisfies it.
type Querier interface {
	Query(ctx context.Context, groq string, params map[string]any, out any) error
}

// Unconfigured answers every query with ErrNotFound. It stands in for the
// Sanity client when no project is configured.
type Unconfigured struct{}

// Query implements Querier.
func (Unconfigured) Query(context.Context, string, map[string]any, any) error { return ErrNotFound }

// Service serves blog posts through a read-through cache. Concurrent misses
// for the same key share one upstream query.
type Service struct {
	querier Querier
	cache   cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewService builds a Service. A nil cache disables caching.
func NewService(q Querier, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{querier: q, cache: c, ttl: ttl, logger: logger.Named("content")}
}

// ListPosts returns published posts newest first. limit is clamped to
// [1, 100] and defaults to 12.
func (s *Service) ListPosts(ctx context.Context, offset, limit int) (PostList, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	key := fmt.Sprintf("%sposts:%d:%d", CachePrefix, offset, limit)
	var raw sanityPostList
	err := s.cached(ctx, key, &raw, func(out any) error {
		return s.querier.Query(ctx, listPostsQuery, map[string]any{"start": offset, "end": offset + limit}, out)
	})
	if errors.Is(err, ErrNotFound) {
		return PostList{Posts: []PostSummary{}}, nil
	}
	if err != nil {
		return PostList{}, fmt.Errorf("list posts: %w", err)
	}
	list := PostList{Total: raw.Total, Posts: make([]PostSummary, 0, len(raw.Posts))}
	for _, p := range raw.Posts {
		list.Posts = append(list.Posts, p.summary())
	}
	return list, nil
}

// GetPost loads one post by slug. Unknown slugs return ErrNotFound.
func (s *Service) GetPost(ctx context.Context, slug string) (Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Post{}, ErrNotFound
	}
	var raw sanityPost
	err := s.cached(ctx, CachePrefix+"post:"+slug, &raw, func(out any) error {
		return s.querier.Query(ctx, getPostQuery, map[string]any{"slug": slug}, out)
	})
	if err != nil {
		return Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	return Post{
		PostSummary:    raw.summary(),
		SEOTitle:       raw.SEOTitle,
		SEODescription: raw.SEODescription,
		Body:           raw.Body,
	}, nil
}

// PostSlugs returns every published post for sitemap generation.
func (s *Service) PostSlugs(ctx context.Context) ([]PostSummary, error) {
	var raw []sanityPostSummary
	err := s.cached(ctx, CachePrefix+"slugs", &raw, func(out any) error {
		return s.querier.Query(ctx, postSlugsQuery, nil, out)
	})
	if errors.Is(err, ErrNotFound) {
		return []PostSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list post slugs: %w", err)
	}
	out := make([]PostSummary, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.summary())
	}
	return out, nil
}

// Purge drops every cached content entry.
func (s *Service) Purge(ctx context.Context) error {
	if err := s.cache.DeletePrefix(ctx, CachePrefix); err != nil {
		return fmt.Errorf("purge content cache: %w", err)
	}
	return nil
}

// cached decodes the cached JSON for key into out, or runs load and stores
// its result. Cache failures degrade to a direct query.
func (s *Service) cached(ctx context.Context, key string, out any, load func(out any) error) error {
	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCacheLookup(hit)
	if hit {
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if err := load(out); err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode cache entry: %w", err)
		}
		if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
			s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	encoded, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("unexpected shared result %T", v)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("decode shared result: %w", err)
	}
	return nil
}
