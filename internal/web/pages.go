// Package web renders the public HTML pages of the site.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/content"
	"github.com/visitmakkah/visitmakkah/internal/logging"
	"github.com/visitmakkah/visitmakkah/internal/seo"
)

const (
	blogPageSize    = 12
	homePostCount   = 3
	defaultEndpoint = "/api/chatkit/session"
)

// ContentSource supplies blog posts to the pages.
type ContentSource interface {
	ListPosts(ctx context.Context, offset, limit int) (content.PostList, error)
	GetPost(ctx context.Context, slug string) (content.Post, error)
}

// Config holds the page settings.
type Config struct {
	SiteName        string
	BaseURL         string
	IndexThreshold  int
	GuidesPageSize  int
	ChatEnabled     bool
	ChatScriptURL   string
	SessionEndpoint string
}

// Pages serves the HTML routes.
type Pages struct {
	cfg       Config
	content   ContentSource
	templates map[string]*template.Template
	urls      *seo.Builder
	logger    *zap.Logger
}

type meta struct {
	SiteName    string
	Title       string
	Description string
	Canonical   string
	Robots      string
	Prev        string
	Next        string
}

type guideLink struct {
	Title   string
	Path    string
	Country seo.Country
}

// New parses the embedded templates.
func New(cfg Config, src ContentSource, logger *zap.Logger) (*Pages, error) {
	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GuidesPageSize <= 0 {
		cfg.GuidesPageSize = seo.DefaultPageSize
	}
	if cfg.SessionEndpoint == "" {
		cfg.SessionEndpoint = defaultEndpoint
	}
	if src == nil {
		src = noContent{}
	}
	return &Pages{
		cfg:       cfg,
		content:   src,
		templates: tmpls,
		urls:      seo.NewBuilder(cfg.BaseURL, cfg.IndexThreshold),
		logger:    logger.Named("web"),
	}, nil
}

// noContent serves an empty blog when no source is wired.
type noContent struct{}

func (noContent) ListPosts(context.Context, int, int) (content.PostList, error) {
	return content.PostList{}, nil
}

func (noContent) GetPost(context.Context, string) (content.Post, error) {
	return content.Post{}, content.ErrNotFound
}

// Register mounts the page routes and the HTML not-found handler.
func (p *Pages) Register(r chi.Router) {
	r.Get("/", p.home)
	r.Get("/guides", p.guides)
	r.Get("/guides/{keyword}", p.keyword)
	r.Get("/guides/{keyword}/{country}", p.guide)
	r.Get("/blog", p.blog)
	r.Get("/blog/{slug}", p.post)
	r.Get("/chat", p.chat)
	r.NotFound(p.notFound)
}

func (p *Pages) meta(title, description, path string) meta {
	m := meta{
		SiteName:    p.cfg.SiteName,
		Title:       title,
		Description: description,
		Robots:      seo.RobotsIndex,
	}
	if path != "" {
		m.Canonical = p.urls.Absolute(path)
	}
	return m
}

func (p *Pages) home(w http.ResponseWriter, r *http.Request) {
	var posts []content.PostSummary
	list, err := p.content.ListPosts(r.Context(), 0, homePostCount)
	if err != nil {
		p.log(r).Warn("home posts unavailable", zap.Error(err))
	} else {
		posts = list.Posts
	}
	p.render(w, r, http.StatusOK, "home.gohtml", struct {
		Meta     meta
		Keywords []seo.Keyword
		Posts    []content.PostSummary
	}{
		Meta:     p.meta("Umrah and Hajj guides", "Guides, visas and travel advice for Umrah and Hajj pilgrims visiting Makkah.", "/"),
		Keywords: seo.Keywords(),
		Posts:    posts,
	})
}

func (p *Pages) guides(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "guides.gohtml", struct {
		Meta     meta
		Keywords []seo.Keyword
	}{
		Meta:     p.meta("Pilgrimage guides", "Country-by-country guides for Umrah, Hajj and travel to Makkah.", "/guides"),
		Keywords: seo.Keywords(),
	})
}

func (p *Pages) keyword(w http.ResponseWriter, r *http.Request) {
	k, err := seo.KeywordBySlug(chi.URLParam(r, "keyword"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	page, ok := pageParam(r)
	if !ok {
		p.fail(w, r, seo.ErrPageOutOfRange)
		return
	}
	countries, pg, err := seo.PaginateCountries(page, p.cfg.GuidesPageSize)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	links := make([]guideLink, 0, len(countries))
	for _, c := range countries {
		links = append(links, guideLink{Title: seo.GuideTitle(k, c), Path: seo.GuidePath(k, c), Country: c})
	}
	base := seo.GuideIndexPath(k)
	m := p.meta(k.Title+" by country", k.Intro, pagePath(base, pg.Number))
	if pg.HasPrev() {
		m.Prev = p.urls.Absolute(pagePath(base, pg.Prev()))
	}
	if pg.HasNext() {
		m.Next = p.urls.Absolute(pagePath(base, pg.Next()))
	}
	p.render(w, r, http.StatusOK, "keyword.gohtml", struct {
		Meta      meta
		Keyword   seo.Keyword
		Countries []guideLink
		Page      seo.Page
		FirstRank int
		PrevHref  string
		NextHref  string
	}{
		Meta:      m,
		Keyword:   k,
		Countries: links,
		Page:      pg,
		FirstRank: pg.Offset + 1,
		PrevHref:  pagePath(base, pg.Prev()),
		NextHref:  pagePath(base, pg.Next()),
	})
}

// guide renders one keyword/country pSEO page. Countries ranked at or past
// the index threshold are served with a noindex robots directive.
func (p *Pages) guide(w http.ResponseWriter, r *http.Request) {
	k, err := seo.KeywordBySlug(chi.URLParam(r, "keyword"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	c, err := seo.CountryBySlug(chi.URLParam(r, "country"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	title := seo.GuideTitle(k, c)
	m := p.meta(title, k.Intro, seo.GuidePath(k, c))
	m.Robots = seo.RobotsDirective(c.Rank, p.cfg.IndexThreshold)

	related := make([]guideLink, 0, len(seo.Keywords())-1)
	for _, other := range seo.Keywords() {
		if other.Slug == k.Slug {
			continue
		}
		related = append(related, guideLink{Title: seo.GuideTitle(other, c), Path: seo.GuidePath(other, c), Country: c})
	}
	p.render(w, r, http.StatusOK, "guide.gohtml", struct {
		Meta           meta
		Keyword        seo.Keyword
		Country        seo.Country
		Related        []guideLink
		StructuredData map[string]any
	}{
		Meta:    m,
		Keyword: k,
		Country: c,
		Related: related,
		StructuredData: map[string]any{
			"@context":    "https://schema.org",
			"@type":       "Article",
			"headline":    title,
			"description": k.Intro,
			"url":         m.Canonical,
			"about":       map[string]string{"@type": "Country", "name": c.Name},
		},
	})
}

func (p *Pages) blog(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		p.fail(w, r, seo.ErrPageOutOfRange)
		return
	}
	list, err := p.content.ListPosts(r.Context(), (page-1)*blogPageSize, blogPageSize)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	pg, err := seo.Paginate(list.Total, page, blogPageSize)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	m := p.meta("Blog", "Stories and practical advice for pilgrims.", pagePath("/blog", pg.Number))
	if pg.HasPrev() {
		m.Prev = p.urls.Absolute(pagePath("/blog", pg.Prev()))
	}
	if pg.HasNext() {
		m.Next = p.urls.Absolute(pagePath("/blog", pg.Next()))
	}
	p.render(w, r, http.StatusOK, "blog.gohtml", struct {
		Meta     meta
		Posts    []content.PostSummary
		Page     seo.Page
		PrevHref string
		NextHref string
	}{
		Meta:     m,
		Posts:    list.Posts,
		Page:     pg,
		PrevHref: pagePath("/blog", pg.Prev()),
		NextHref: pagePath("/blog", pg.Next()),
	})
}

func (p *Pages) post(w http.ResponseWriter, r *http.Request) {
	post, err := p.content.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		p.fail(w, r, err)
		return
	}
	title := post.SEOTitle
	if title == "" {
		title = post.Title
	}
	description := post.SEODescription
	if description == "" {
		description = post.Excerpt
	}
	p.render(w, r, http.StatusOK, "post.gohtml", struct {
		Meta meta
		Post content.Post
		Body template.HTML
	}{
		Meta: p.meta(title, description, seo.BlogPath(post.Slug)),
		Post: post,
		Body: content.RenderPortableText(post.Body),
	})
}

func (p *Pages) chat(w http.ResponseWriter, r *http.Request) {
	m := p.meta("Ask about your pilgrimage", "Chat with our assistant about Umrah, Hajj and travel to Makkah.", "/chat")
	m.Robots = seo.RobotsNoIndex
	p.render(w, r, http.StatusOK, "chat.gohtml", struct {
		Meta            meta
		Enabled         bool
		ScriptURL       string
		SessionEndpoint string
	}{
		Meta:            m,
		Enabled:         p.cfg.ChatEnabled,
		ScriptURL:       p.cfg.ChatScriptURL,
		SessionEndpoint: p.cfg.SessionEndpoint,
	})
}

// notFound answers unknown API paths with the JSON error body and everything
// else with the HTML error page.
func (p *Pages) notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/admin/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		return
	}
	p.errorPage(w, r, http.StatusNotFound)
}

func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		p.log(r).Info("page not found", zap.String("path", r.URL.Path), zap.Error(err))
		p.errorPage(w, r, http.StatusNotFound)
		return
	}
	p.log(r).Error("page failed", zap.String("path", r.URL.Path), zap.Error(err))
	p.errorPage(w, r, http.StatusInternalServerError)
}

func (p *Pages) errorPage(w http.ResponseWriter, r *http.Request, status int) {
	title, msg := "Page not found", "We could not find the page you were looking for."
	if status != http.StatusNotFound {
		title, msg = "Something went wrong", "Please try again in a moment."
	}
	m := p.meta(title, "", "")
	m.Robots = seo.RobotsNoIndex
	p.render(w, r, status, "error.gohtml", struct {
		Meta    meta
		Message string
	}{Meta: m, Message: msg})
}

// render executes into a buffer so template errors never leave a half-written page.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := p.templates[name]
	if !ok {
		p.log(r).Error("unknown template", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.log(r).Error("render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) log(r *http.Request) *zap.Logger {
	return logging.FromContextOr(r.Context(), p.logger)
}

func isNotFound(err error) bool {
	return errors.Is(err, content.ErrNotFound) ||
		errors.Is(err, seo.ErrPageOutOfRange) ||
		errors.Is(err, seo.ErrUnknownKeyword) ||
		errors.Is(err, seo.ErrUnknownCountry)
}

// pageParam reads ?page=, defaulting to 1. Malformed values are rejected.
func pageParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func pagePath(base string, page int) string {
	if page <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(page)
}
