package api

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/seo"
)

const maxCountryPageSize = 100

type postResponse struct {
	content.PostSummary
	SEOTitle       string        `json:"seo_title,omitempty"`
	SEODescription string        `json:"seo_description,omitempty"`
	BodyHTML       template.HTML `json:"body_html"`
}

type countryResponse struct {
	seo.Country
	Indexable bool   `json:"indexable"`
	Robots    string `json:"robots"`
	Path      string `json:"path,omitempty"`
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		fail(w, r, err)
		return
	}
	if offset < 0 {
		fail(w, r, badRequest("offset must be >= 0"))
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		fail(w, r, err)
		return
	}
	list, err := s.deps.Content.ListPosts(r.Context(), offset, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Content.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{
		PostSummary:    post.PostSummary,
		SEOTitle:       post.SEOTitle,
		SEODescription: post.SEODescription,
		BodyHTML:       content.RenderPortableText(post.Body),
	})
}

// listCountries pages through the priority countries. With ?keyword= each
// entry also carries its guide path.
func (s *Server) listCountries(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		fail(w, r, err)
		return
	}
	size, err := intParam(r, "page_size", s.cfg.Site.GuidesPageSize)
	if err != nil {
		fail(w, r, err)
		return
	}
	if size < 1 || size > maxCountryPageSize {
		fail(w, r, badRequest("page_size must be between 1 and %d", maxCountryPageSize))
		return
	}
	var keyword *seo.Keyword
	if raw := r.URL.Query().Get("keyword"); raw != "" {
		k, err := seo.KeywordBySlug(raw)
		if err != nil {
			fail(w, r, err)
			return
		}
		keyword = &k
	}
	countries, p, err := seo.PaginateCountries(page, size)
	if err != nil {
		fail(w, r, err)
		return
	}
	threshold := s.cfg.Site.IndexThreshold
	out := make([]countryResponse, 0, len(countries))
	for _, c := range countries {
		entry := countryResponse{
			Country:   c,
			Indexable: seo.Indexable(c.Rank, threshold),
			Robots:    seo.RobotsDirective(c.Rank, threshold),
		}
		if keyword != nil {
			entry.Path = seo.GuidePath(*keyword, c)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": out, "pagination": p})
}
