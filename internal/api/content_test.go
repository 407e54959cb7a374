package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/seo"
)

func TestListPostsPassesPaging(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.content.posts = []content.PostSummary{{ID: "p1", Title: "Ihram basics", Slug: "ihram-basics"}}

	rec := env.do(http.MethodGet, "/api/blog?offset=12&limit=6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[content.PostList](t, rec)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "ihram-basics", list.Posts[0].Slug)
	require.Equal(t, []int{12}, env.content.offsets)
	require.Equal(t, []int{6}, env.content.limits)

	rec = env.do(http.MethodGet, "/api/blog?offset=-1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodGet, "/api/blog?limit=many", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env.content.err = errors.New("sanity timeout")
	rec = env.do(http.MethodGet, "/api/blog", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestGetPostRendersBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.content.post = map[string]content.Post{
		"zamzam": {
			PostSummary: content.PostSummary{Slug: "zamzam", Title: "Zamzam water", PublishedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
			SEOTitle:    "Zamzam water guide",
			Body: []content.Block{
				{Type: "block", Style: "normal", Children: []content.Span{{Type: "span", Text: "Drink facing the Qibla."}}},
			},
		},
	}

	rec := env.do(http.MethodGet, "/api/blog/zamzam", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	require.Equal(t, "Zamzam water", body["title"])
	require.Equal(t, "Zamzam water guide", body["seo_title"])
	require.Equal(t, "<p>Drink facing the Qibla.</p>", body["body_html"])

	rec = env.do(http.MethodGet, "/api/blog/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

type countriesBody struct {
	Countries  []countryResponse `json:"countries"`
	Pagination seo.Page          `json:"pagination"`
}

func TestListCountriesPaginatesAndFlagsIndexing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	total := len(seo.Countries())

	rec := env.do(http.MethodGet, "/api/countries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[countriesBody](t, rec)
	require.Len(t, first.Countries, 24)
	require.Equal(t, 1, first.Pagination.Number)
	require.Equal(t, total, first.Pagination.Total)
	require.Equal(t, (total+23)/24, first.Pagination.TotalPages)
	require.Equal(t, "pakistan", first.Countries[0].Slug)
	require.True(t, first.Countries[0].Indexable)
	require.Equal(t, seo.RobotsIndex, first.Countries[0].Robots)
	require.Empty(t, first.Countries[0].Path)

	rec = env.do(http.MethodGet, "/api/countries?page=5&page_size=10&keyword=hajj-guide", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[countriesBody](t, rec)
	require.Len(t, page.Countries, 10)
	require.Equal(t, 49, page.Countries[8].Rank)
	require.True(t, page.Countries[8].Indexable)
	require.Equal(t, 50, page.Countries[9].Rank)
	require.False(t, page.Countries[9].Indexable, "rank 50 is past the cut-off")
	require.Equal(t, seo.RobotsNoIndex, page.Countries[9].Robots)
	require.Equal(t, "/guides/hajj-guide/belgium", page.Countries[9].Path)
}

func TestListCountriesErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	testCases := []struct {
		query string
		want  int
	}{
		{"?page=0", http.StatusNotFound},
		{"?page=99", http.StatusNotFound},
		{"?page=two", http.StatusBadRequest},
		{"?page_size=0", http.StatusBadRequest},
		{"?page_size=101", http.StatusBadRequest},
		{"?keyword=atlantis", http.StatusNotFound},
	}
	for _, tc := range testCases {
		rec := env.do(http.MethodGet, "/api/countries"+tc.query, "")
		require.Equal(t, tc.want, rec.Code, tc.query)
	}
}
