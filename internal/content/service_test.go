package content

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/cache"
)

type fakeQuerier struct {
	mu      sync.Mutex
	calls   int
	params  []map[string]any
	results map[string]string
	err     error
}

func (f *fakeQuerier) Query(_ context.Context, groq string, params map[string]any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.params = append(f.params, params)
	if f.err != nil {
		return f.err
	}
	raw, ok := f.results[groq]
	if !ok || raw == "null" {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(raw), out)
}

func TestListPostsCachesAndClamps(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: map[string]string{
		listPostsQuery: `{"total":2,"posts":[{"_id":"p1","title":"Umrah steps","slug":"umrah-steps","publishedAt":"2026-01-02T00:00:00Z"}]}`,
	}}
	svc := NewService(q, cache.NewMemory(), time.Minute, nil)
	ctx := context.Background()

	list, err := svc.ListPosts(ctx, -5, 500)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Posts, 1)
	require.Equal(t, "umrah-steps", list.Posts[0].Slug)
	require.Equal(t, map[string]any{"start": 0, "end": maxListLimit}, q.params[0])

	_, err = svc.ListPosts(ctx, 0, maxListLimit)
	require.NoError(t, err)
	require.Equal(t, 1, q.calls, "second call is served from cache")

	require.NoError(t, svc.Purge(ctx))
	_, err = svc.ListPosts(ctx, 0, maxListLimit)
	require.NoError(t, err)
	require.Equal(t, 2, q.calls)
}

func TestGetPost(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: map[string]string{
		getPostQuery: `{"_id":"p1","title":"Ihram","slug":"ihram","seoTitle":"Ihram rules","_updatedAt":"2026-02-01T10:00:00Z",
			"body":[{"_type":"block","style":"normal","children":[{"_type":"span","text":"Enter ihram at the miqat."}]}]}`,
	}}
	svc := NewService(q, nil, time.Minute, nil)

	post, err := svc.GetPost(context.Background(), "ihram")
	require.NoError(t, err)
	require.Equal(t, "Ihram rules", post.SEOTitle)
	require.Len(t, post.Body, 1)
	require.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), post.LastModified())

	_, err = svc.GetPost(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostNotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeQuerier{results: map[string]string{getPostQuery: "null"}}, cache.NewMemory(), time.Minute, nil)
	_, err := svc.GetPost(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostSlugs(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{results: map[string]string{
		postSlugsQuery: `[{"slug":"a","_updatedAt":"2026-01-01T00:00:00Z"},{"slug":"b","publishedAt":"2025-12-01T00:00:00Z"}]`,
	}}
	svc := NewService(q, cache.NewMemory(), time.Minute, nil)
	posts, err := svc.PostSlugs(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), posts[1].LastModified())

	empty := NewService(&fakeQuerier{results: map[string]string{}}, nil, 0, nil)
	posts, err = empty.PostSlugs(context.Background())
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestUpstreamErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("sanity down")
	svc := NewService(&fakeQuerier{err: boom}, cache.NewMemory(), time.Minute, nil)
	_, err := svc.ListPosts(context.Background(), 0, 10)
	require.ErrorIs(t, err, boom)
}

func TestCorruptCacheEntryIsReloaded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := cache.NewMemory()
	require.NoError(t, mem.Set(ctx, CachePrefix+"slugs", []byte("{not json"), time.Minute))
	q := &fakeQuerier{results: map[string]string{postSlugsQuery: `[{"slug":"a"}]`}}

	posts, err := NewService(q, mem, time.Minute, nil).PostSlugs(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 1, q.calls)
}

func TestListPostsWithoutProjectIsEmpty(t *testing.T) {
	t.Parallel()

	svc := NewService(Unconfigured{}, cache.NewMemory(), time.Minute, nil)
	list, err := svc.ListPosts(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Zero(t, list.Total)
	require.NotNil(t, list.Posts)
	require.Empty(t, list.Posts)

	_, err = svc.GetPost(context.Background(), "anything")
	require.ErrorIs(t, err, ErrNotFound)
}

type blockingQuerier struct {
	fakeQuerier
	release chan struct{}
}

func (b *blockingQuerier) Query(ctx context.Context, groq string, params map[string]any, out any) error {
	<-b.release
	return b.fakeQuerier.Query(ctx, groq, params, out)
}

func TestConcurrentMissesShareOneQuery(t *testing.T) {
	t.Parallel()

	q := &blockingQuerier{
		fakeQuerier: fakeQuerier{results: map[string]string{postSlugsQuery: `[{"slug":"a"},{"slug":"b"}]`}},
		release:     make(chan struct{}),
	}
	svc := NewService(q, cache.Nop{}, time.Minute, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]PostSummary, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.PostSlugs(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(q.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 2)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	require.Less(t, q.calls, callers)
}
