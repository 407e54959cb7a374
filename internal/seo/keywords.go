package seo

import (
	"errors"
	"strings"
)

// ErrUnknownKeyword signals that a slug does not match a pSEO keyword.
var ErrUnknownKeyword = errors.New("unknown keyword")

// Keyword is one programmatic landing-page theme. Each keyword is combined with
// every priority country to produce a guide page.
type Keyword struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Intro string `json:"intro"`
}

var keywords = []Keyword{
	{
		Slug:  "umrah-guide",
		Title: "Umrah Guide",
		Intro: "Step-by-step preparation for performing Umrah, from travel planning to the rites in Makkah.",
	},
	{
		Slug:  "umrah-visa",
		Title: "Umrah Visa Requirements",
		Intro: "Documents, eligibility and processing notes for obtaining a Saudi Umrah or tourist visa.",
	},
	{
		Slug:  "hajj-guide",
		Title: "Hajj Guide",
		Intro: "Quota registration, packages and the days of Hajj explained for first-time pilgrims.",
	},
	{
		Slug:  "travel-to-makkah",
		Title: "Travel to Makkah",
		Intro: "Flights, airport transfers, accommodation and getting around Makkah and Madinah.",
	},
}

// Keywords returns a copy of the pSEO keyword list.
func Keywords() []Keyword {
	out := make([]Keyword, len(keywords))
	copy(out, keywords)
	return out
}

// KeywordBySlug looks up a keyword. Matching is case-insensitive.
func KeywordBySlug(slug string) (Keyword, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, k := range keywords {
		if k.Slug == slug {
			return k, nil
		}
	}
	return Keyword{}, ErrUnknownKeyword
}

// GuideTitle renders the page title for a keyword/country combination.
func GuideTitle(k Keyword, c Country) string {
	return k.Title + " from " + c.Name
}

// GuidePath is the site-relative path of a keyword/country guide page.
func GuidePath(k Keyword, c Country) string {
	return "/guides/" + k.Slug + "/" + c.Slug
}

// GuideIndexPath is the site-relative path of a keyword's country index.
func GuideIndexPath(k Keyword) string {
	return "/guides/" + k.Slug
}
