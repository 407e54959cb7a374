package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/content"
)

type fakeSource struct {
	posts []content.PostSummary
	total int
	post  map[string]content.Post
	err   error
}

func (f *fakeSource) ListPosts(_ context.Context, offset, limit int) (content.PostList, error) {
	if f.err != nil {
		return content.PostList{}, f.err
	}
	end := offset + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	if offset > end {
		offset = end
	}
	total := f.total
	if total == 0 {
		total = len(f.posts)
	}
	return content.PostList{Total: total, Posts: f.posts[offset:end]}, nil
}

func (f *fakeSource) GetPost(_ context.Context, slug string) (content.Post, error) {
	if f.err != nil {
		return content.Post{}, f.err
	}
	p, ok := f.post[slug]
	if !ok {
		return content.Post{}, content.ErrNotFound
	}
	return p, nil
}

func newTestRouter(t *testing.T, src ContentSource, chat bool) http.Handler {
	t.Helper()
	pages, err := New(Config{
		SiteName:       "Visit Makkah",
		BaseURL:        "https://visitmakkah.com",
		IndexThreshold: 50,
		GuidesPageSize: 24,
		ChatEnabled:    chat,
		ChatScriptURL:  "https://cdn.example.com/chatkit.js",
	}, src, zap.NewNop())
	require.NoError(t, err)
	r := chi.NewRouter()
	pages.Register(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestTemplatesParse(t *testing.T) {
	t.Parallel()

	tmpls, err := parseTemplates()
	require.NoError(t, err)
	require.Len(t, tmpls, len(pageFiles))
}

func TestGuidePageRobotsFollowRank(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{}, false)

	rec := get(t, h, "/guides/umrah-visa/pakistan")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.Contains(t, body, `<meta name="robots" content="index, follow">`)
	require.Contains(t, body, `<link rel="canonical" href="https://visitmakkah.com/guides/umrah-visa/pakistan">`)
	require.Contains(t, body, "<title>Umrah Visa Requirements from Pakistan | Visit Makkah</title>")
	require.Contains(t, body, `href="/guides/hajj-guide/pakistan"`)
	require.Contains(t, body, `"@type":"Article"`)

	rec = get(t, h, "/guides/umrah-visa/belgium")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `<meta name="robots" content="noindex, follow">`)

	rec = get(t, h, "/guides/umrah-visa/netherlands")
	require.Contains(t, rec.Body.String(), `<meta name="robots" content="index, follow">`)
}

func TestGuidePageUnknownSlugs(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{}, false)
	for _, path := range []string{"/guides/umrah-visa/atlantis", "/guides/cheap-flights/pakistan", "/guides/cheap-flights"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		require.Contains(t, rec.Body.String(), "Page not found")
		require.Contains(t, rec.Body.String(), `content="noindex, follow"`)
	}
}

func TestKeywordIndexPagination(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{}, false)

	rec := get(t, h, "/guides/hajj-guide")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Equal(t, 24, strings.Count(body, `<li><a href="/guides/hajj-guide/`))
	require.Contains(t, body, `<link rel="canonical" href="https://visitmakkah.com/guides/hajj-guide">`)
	require.Contains(t, body, `<link rel="next" href="https://visitmakkah.com/guides/hajj-guide?page=2">`)
	require.NotContains(t, body, `rel="prev"`)

	rec = get(t, h, "/guides/hajj-guide?page=3")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	require.Contains(t, body, `<ol start="49">`)
	require.Contains(t, body, `<link rel="prev" href="https://visitmakkah.com/guides/hajj-guide?page=2">`)
	require.NotContains(t, body, `<link rel="next"`)

	for _, q := range []string{"?page=0", "?page=4", "?page=x"} {
		rec = get(t, h, "/guides/hajj-guide"+q)
		require.Equal(t, http.StatusNotFound, rec.Code, q)
	}
}

func TestBlogPages(t *testing.T) {
	t.Parallel()

	posts := make([]content.PostSummary, 0, 14)
	for i := range 14 {
		posts = append(posts, content.PostSummary{
			Slug:        "post-" + string(rune('a'+i)),
			Title:       "Post " + string(rune('A'+i)),
			PublishedAt: time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC),
		})
	}
	src := &fakeSource{
		posts: posts,
		post: map[string]content.Post{
			"post-a": {
				PostSummary:    content.PostSummary{Slug: "post-a", Title: "Post A", Author: "Aisha"},
				SEODescription: "Everything about <ihram>",
				Body: []content.Block{
					{Type: "block", Style: "normal", Children: []content.Span{{Type: "span", Text: "Hello pilgrims"}}},
				},
			},
		},
	}
	h := newTestRouter(t, src, false)

	rec := get(t, h, "/blog")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, blogPageSize, strings.Count(rec.Body.String(), "<article>"))
	require.Contains(t, rec.Body.String(), `href="/blog?page=2"`)

	rec = get(t, h, "/blog?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, strings.Count(rec.Body.String(), "<article>"))

	rec = get(t, h, "/blog?page=3")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/blog/post-a")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<p>Hello pilgrims</p>")
	require.Contains(t, body, `<meta name="description" content="Everything about &lt;ihram&gt;">`)
	require.Contains(t, body, `<link rel="canonical" href="https://visitmakkah.com/blog/post-a">`)

	rec = get(t, h, "/blog/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpstreamFailureRendersErrorPage(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{err: errors.New("sanity down")}, false)

	rec := get(t, h, "/blog")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Something went wrong")

	rec = get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code, "home degrades without posts")
	require.NotContains(t, rec.Body.String(), "Latest from the blog")
}

func TestPagesWithoutContentSource(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil, false)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Latest from the blog")

	rec = get(t, h, "/blog")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/blog/anything")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")
}

func TestHomeListsGuidesAndPosts(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{posts: []content.PostSummary{{Slug: "first", Title: "First steps"}}}, false)
	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `href="/guides/umrah-guide"`)
	require.Contains(t, body, `href="/blog/first"`)

	rec = get(t, h, "/guides")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `href="/guides/travel-to-makkah"`)
}

func TestChatPage(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestRouter(t, &fakeSource{}, true), "/chat")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `<script src="https://cdn.example.com/chatkit.js" async></script>`)
	require.Contains(t, body, `data-session-endpoint="/api/chatkit/session"`)

	rec = get(t, newTestRouter(t, &fakeSource{}, false), "/chat")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "not available")
	require.NotContains(t, rec.Body.String(), "chatkit.js")
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &fakeSource{}, false)
	rec := get(t, h, "/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")

	rec = get(t, h, "/api/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}
