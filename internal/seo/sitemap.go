package seo

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	xmlHeader      = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	sitemapNS      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	lastModFormat  = "2006-01-02"
	staticSitemap  = "static.xml"
	blogSitemap    = "blog.xml"
	guidesPrefix   = "guides-"
	sitemapSuffix  = ".xml"
	sitemapsFolder = "/sitemaps/"
)

// ErrUnknownSitemap is returned for sitemap names the Builder does not produce.
var ErrUnknownSitemap = errors.New("unknown sitemap")

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the five XML special characters. The replacer scans the
// input once, so produced entities are never escaped a second time.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// URL is one <url> entry of a urlset.
type URL struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

// IndexEntry is one <sitemap> entry of a sitemap index.
type IndexEntry struct {
	Loc     string
	LastMod time.Time
}

// PostRef is the minimal blog post data needed for the blog sitemap.
type PostRef struct {
	Slug      string
	UpdatedAt time.Time
}

// StaticPage is a hand-maintained route listed in the static sitemap.
type StaticPage struct {
	Path       string
	ChangeFreq string
	Priority   float64
}

var staticPages = []StaticPage{
	{Path: "/", ChangeFreq: "daily", Priority: 1.0},
	{Path: "/guides", ChangeFreq: "weekly", Priority: 0.9},
	{Path: "/blog", ChangeFreq: "daily", Priority: 0.8},
	{Path: "/chat", ChangeFreq: "monthly", Priority: 0.7},
}

// StaticPages returns a copy of the static route list.
func StaticPages() []StaticPage {
	out := make([]StaticPage, len(staticPages))
	copy(out, staticPages)
	return out
}

// BuildURLSet renders a <urlset> document.
func BuildURLSet(urls []URL) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<urlset xmlns="` + sitemapNS + `">` + "\n")
	for _, u := range urls {
		b.WriteString("  <url>\n")
		b.WriteString("    <loc>" + EscapeXML(u.Loc) + "</loc>\n")
		if !u.LastMod.IsZero() {
			b.WriteString("    <lastmod>" + u.LastMod.UTC().Format(lastModFormat) + "</lastmod>\n")
		}
		if u.ChangeFreq != "" {
			b.WriteString("    <changefreq>" + EscapeXML(u.ChangeFreq) + "</changefreq>\n")
		}
		if u.Priority > 0 {
			b.WriteString("    <priority>" + strconv.FormatFloat(u.Priority, 'f', 1, 64) + "</priority>\n")
		}
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

// BuildIndex renders a <sitemapindex> document.
func BuildIndex(entries []IndexEntry) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<sitemapindex xmlns="` + sitemapNS + `">` + "\n")
	for _, e := range entries {
		b.WriteString("  <sitemap>\n")
		b.WriteString("    <loc>" + EscapeXML(e.Loc) + "</loc>\n")
		if !e.LastMod.IsZero() {
			b.WriteString("    <lastmod>" + e.LastMod.UTC().Format(lastModFormat) + "</lastmod>\n")
		}
		b.WriteString("  </sitemap>\n")
	}
	b.WriteString("</sitemapindex>\n")
	return b.String()
}

// Builder assembles the site's sitemaps relative to a public base URL.
type Builder struct {
	baseURL        string
	indexThreshold int
}

// NewBuilder returns a Builder. A trailing slash on baseURL is ignored.
func NewBuilder(baseURL string, indexThreshold int) *Builder {
	if indexThreshold <= 0 {
		indexThreshold = DefaultIndexThreshold
	}
	return &Builder{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		indexThreshold: indexThreshold,
	}
}

// Absolute joins a site-relative path onto the base URL.
func (b *Builder) Absolute(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.baseURL + path
}

// Names lists every child sitemap file name, in index order.
func (b *Builder) Names() []string {
	names := []string{staticSitemap, blogSitemap}
	for _, k := range keywords {
		names = append(names, GuidesSitemapName(k))
	}
	return names
}

// GuidesSitemapName is the file name of a keyword's guide sitemap.
func GuidesSitemapName(k Keyword) string {
	return guidesPrefix + k.Slug + sitemapSuffix
}

// KeywordFromSitemapName extracts the keyword of a guides sitemap file name.
func KeywordFromSitemapName(name string) (Keyword, error) {
	if !strings.HasPrefix(name, guidesPrefix) || !strings.HasSuffix(name, sitemapSuffix) {
		return Keyword{}, ErrUnknownSitemap
	}
	slug := strings.TrimSuffix(strings.TrimPrefix(name, guidesPrefix), sitemapSuffix)
	k, err := KeywordBySlug(slug)
	if err != nil {
		return Keyword{}, ErrUnknownSitemap
	}
	return k, nil
}

// IsBlogSitemap reports whether name is the blog sitemap.
func IsBlogSitemap(name string) bool { return name == blogSitemap }

// IsStaticSitemap reports whether name is the static sitemap.
func IsStaticSitemap(name string) bool { return name == staticSitemap }

// Index renders the sitemap index pointing at every child sitemap.
func (b *Builder) Index(now time.Time) string {
	names := b.Names()
	entries := make([]IndexEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, IndexEntry{Loc: b.Absolute(sitemapsFolder + name), LastMod: now})
	}
	return BuildIndex(entries)
}

// StaticURLs returns the urlset entries for static routes.
func (b *Builder) StaticURLs() []URL {
	urls := make([]URL, 0, len(staticPages)+len(keywords))
	for _, p := range staticPages {
		urls = append(urls, URL{Loc: b.Absolute(p.Path), ChangeFreq: p.ChangeFreq, Priority: p.Priority})
	}
	for _, k := range keywords {
		urls = append(urls, URL{Loc: b.Absolute(GuideIndexPath(k)), ChangeFreq: "weekly", Priority: 0.7})
	}
	return urls
}

// Static renders the static sitemap.
func (b *Builder) Static() string {
	return BuildURLSet(b.StaticURLs())
}

// GuideURLs returns the urlset entries for one keyword, indexable countries only.
func (b *Builder) GuideURLs(k Keyword) []URL {
	countries := IndexableCountries(b.indexThreshold)
	urls := make([]URL, 0, len(countries))
	for _, c := range countries {
		urls = append(urls, URL{
			Loc:        b.Absolute(GuidePath(k, c)),
			ChangeFreq: "monthly",
			Priority:   guidePriority(c.Rank),
		})
	}
	return urls
}

// Guides renders the guide sitemap for one keyword.
func (b *Builder) Guides(k Keyword) string {
	return BuildURLSet(b.GuideURLs(k))
}

// BlogPath returns the page path of a post with its slug path-escaped.
func BlogPath(slug string) string {
	return "/blog/" + url.PathEscape(slug)
}

// BlogURLs returns the urlset entries for blog posts. Posts without a slug are skipped.
func (b *Builder) BlogURLs(posts []PostRef) []URL {
	urls := make([]URL, 0, len(posts))
	for _, p := range posts {
		if strings.TrimSpace(p.Slug) == "" {
			continue
		}
		urls = append(urls, URL{
			Loc:        b.Absolute(BlogPath(p.Slug)),
			LastMod:    p.UpdatedAt,
			ChangeFreq: "weekly",
			Priority:   0.6,
		})
	}
	return urls
}

// Blog renders the blog sitemap.
func (b *Builder) Blog(posts []PostRef) string {
	return BuildURLSet(b.BlogURLs(posts))
}

// guidePriority favours larger markets: 0.8 for the top ten, 0.6 otherwise.
func guidePriority(rank int) float64 {
	if rank <= 10 {
		return 0.8
	}
	return 0.6
}

// Render produces the named child sitemap and its URL count. posts is only
// called for the blog sitemap.
func (b *Builder) Render(name string, posts func() ([]PostRef, error)) (string, int, error) {
	switch {
	case IsStaticSitemap(name):
		urls := b.StaticURLs()
		return BuildURLSet(urls), len(urls), nil
	case IsBlogSitemap(name):
		refs, err := posts()
		if err != nil {
			return "", 0, err
		}
		urls := b.BlogURLs(refs)
		return BuildURLSet(urls), len(urls), nil
	default:
		k, err := KeywordFromSitemapName(name)
		if err != nil {
			return "", 0, err
		}
		urls := b.GuideURLs(k)
		return BuildURLSet(urls), len(urls), nil
	}
}

// IndexName is the file name of the sitemap index.
const IndexName = "sitemap.xml"

// ChildPath is the site-relative path under which child sitemaps are served.
func ChildPath(name string) string {
	return sitemapsFolder + name
}
