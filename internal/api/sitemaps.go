package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/visitmakkah/visitmakkah/internal/metrics"
	"github.com/visitmakkah/visitmakkah/internal/seo"
)

const xmlContentType = "application/xml; charset=utf-8"

func (s *Server) robots(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("\nSitemap: " + s.sitemaps.Absolute("/"+seo.IndexName) + "\n")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, b.String())
}

func (s *Server) sitemapIndex(w http.ResponseWriter, _ *http.Request) {
	writeXML(w, s.sitemaps.Index(s.deps.Clock.Now()))
}

func (s *Server) sitemap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, n, err := s.sitemaps.Render(name, func() ([]seo.PostRef, error) {
		return s.postRefs(r)
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	metrics.SetSitemapURLs(name, n)
	writeXML(w, body)
}

func (s *Server) postRefs(r *http.Request) ([]seo.PostRef, error) {
	if s.deps.Content == nil {
		return nil, nil
	}
	posts, err := s.deps.Content.PostSlugs(r.Context())
	if err != nil {
		return nil, err
	}
	refs := make([]seo.PostRef, 0, len(posts))
	for _, p := range posts {
		refs = append(refs, seo.PostRef{Slug: p.Slug, UpdatedAt: p.LastModified()})
	}
	return refs, nil
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", xmlContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
