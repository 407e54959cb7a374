package seo

import (
	"errors"
	"strings"
)

// ErrUnknownCountry signals that a slug does not match any priority country.
var ErrUnknownCountry = errors.New("unknown country")

// Country is one source market for pilgrims. Rank 1 is the largest market.
type Country struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Code   string `json:"code"`
	Region string `json:"region"`
	Rank   int    `json:"rank"`
}

// priorityCountries is ordered by rank.
var priorityCountries = []Country{
	{Name: "Pakistan", Slug: "pakistan", Code: "PK", Region: "South Asia", Rank: 1},
	{Name: "Indonesia", Slug: "indonesia", Code: "ID", Region: "Southeast Asia", Rank: 2},
	{Name: "India", Slug: "india", Code: "IN", Region: "South Asia", Rank: 3},
	{Name: "Egypt", Slug: "egypt", Code: "EG", Region: "Middle East & North Africa", Rank: 4},
	{Name: "Turkey", Slug: "turkey", Code: "TR", Region: "Europe & Central Asia", Rank: 5},
	{Name: "Bangladesh", Slug: "bangladesh", Code: "BD", Region: "South Asia", Rank: 6},
	{Name: "Malaysia", Slug: "malaysia", Code: "MY", Region: "Southeast Asia", Rank: 7},
	{Name: "Iraq", Slug: "iraq", Code: "IQ", Region: "Middle East & North Africa", Rank: 8},
	{Name: "Jordan", Slug: "jordan", Code: "JO", Region: "Middle East & North Africa", Rank: 9},
	{Name: "Algeria", Slug: "algeria", Code: "DZ", Region: "Middle East & North Africa", Rank: 10},
	{Name: "United Kingdom", Slug: "united-kingdom", Code: "GB", Region: "Europe & Central Asia", Rank: 11},
	{Name: "United States", Slug: "united-states", Code: "US", Region: "North America", Rank: 12},
	{Name: "Morocco", Slug: "morocco", Code: "MA", Region: "Middle East & North Africa", Rank: 13},
	{Name: "Nigeria", Slug: "nigeria", Code: "NG", Region: "Sub-Saharan Africa", Rank: 14},
	{Name: "Iran", Slug: "iran", Code: "IR", Region: "Middle East & North Africa", Rank: 15},
	{Name: "United Arab Emirates", Slug: "united-arab-emirates", Code: "AE", Region: "Gulf", Rank: 16},
	{Name: "Kuwait", Slug: "kuwait", Code: "KW", Region: "Gulf", Rank: 17},
	{Name: "Yemen", Slug: "yemen", Code: "YE", Region: "Gulf", Rank: 18},
	{Name: "Sudan", Slug: "sudan", Code: "SD", Region: "Sub-Saharan Africa", Rank: 19},
	{Name: "Tunisia", Slug: "tunisia", Code: "TN", Region: "Middle East & North Africa", Rank: 20},
	{Name: "Oman", Slug: "oman", Code: "OM", Region: "Gulf", Rank: 21},
	{Name: "Bahrain", Slug: "bahrain", Code: "BH", Region: "Gulf", Rank: 22},
	{Name: "Qatar", Slug: "qatar", Code: "QA", Region: "Gulf", Rank: 23},
	{Name: "Lebanon", Slug: "lebanon", Code: "LB", Region: "Middle East & North Africa", Rank: 24},
	{Name: "Palestine", Slug: "palestine", Code: "PS", Region: "Middle East & North Africa", Rank: 25},
	{Name: "Syria", Slug: "syria", Code: "SY", Region: "Middle East & North Africa", Rank: 26},
	{Name: "Afghanistan", Slug: "afghanistan", Code: "AF", Region: "South Asia", Rank: 27},
	{Name: "Uzbekistan", Slug: "uzbekistan", Code: "UZ", Region: "Europe & Central Asia", Rank: 28},
	{Name: "Kazakhstan", Slug: "kazakhstan", Code: "KZ", Region: "Europe & Central Asia", Rank: 29},
	{Name: "Azerbaijan", Slug: "azerbaijan", Code: "AZ", Region: "Europe & Central Asia", Rank: 30},
	{Name: "France", Slug: "france", Code: "FR", Region: "Europe & Central Asia", Rank: 31},
	{Name: "Germany", Slug: "germany", Code: "DE", Region: "Europe & Central Asia", Rank: 32},
	{Name: "Canada", Slug: "canada", Code: "CA", Region: "North America", Rank: 33},
	{Name: "Australia", Slug: "australia", Code: "AU", Region: "Oceania", Rank: 34},
	{Name: "South Africa", Slug: "south-africa", Code: "ZA", Region: "Sub-Saharan Africa", Rank: 35},
	{Name: "Senegal", Slug: "senegal", Code: "SN", Region: "Sub-Saharan Africa", Rank: 36},
	{Name: "Mali", Slug: "mali", Code: "ML", Region: "Sub-Saharan Africa", Rank: 37},
	{Name: "Niger", Slug: "niger", Code: "NE", Region: "Sub-Saharan Africa", Rank: 38},
	{Name: "Ethiopia", Slug: "ethiopia", Code: "ET", Region: "Sub-Saharan Africa", Rank: 39},
	{Name: "Somalia", Slug: "somalia", Code: "SO", Region: "Sub-Saharan Africa", Rank: 40},
	{Name: "Kenya", Slug: "kenya", Code: "KE", Region: "Sub-Saharan Africa", Rank: 41},
	{Name: "Tanzania", Slug: "tanzania", Code: "TZ", Region: "Sub-Saharan Africa", Rank: 42},
	{Name: "Singapore", Slug: "singapore", Code: "SG", Region: "Southeast Asia", Rank: 43},
	{Name: "Brunei", Slug: "brunei", Code: "BN", Region: "Southeast Asia", Rank: 44},
	{Name: "Philippines", Slug: "philippines", Code: "PH", Region: "Southeast Asia", Rank: 45},
	{Name: "Thailand", Slug: "thailand", Code: "TH", Region: "Southeast Asia", Rank: 46},
	{Name: "Sri Lanka", Slug: "sri-lanka", Code: "LK", Region: "South Asia", Rank: 47},
	{Name: "Maldives", Slug: "maldives", Code: "MV", Region: "South Asia", Rank: 48},
	{Name: "Netherlands", Slug: "netherlands", Code: "NL", Region: "Europe & Central Asia", Rank: 49},
	{Name: "Belgium", Slug: "belgium", Code: "BE", Region: "Europe & Central Asia", Rank: 50},
	{Name: "Sweden", Slug: "sweden", Code: "SE", Region: "Europe & Central Asia", Rank: 51},
	{Name: "Italy", Slug: "italy", Code: "IT", Region: "Europe & Central Asia", Rank: 52},
	{Name: "Spain", Slug: "spain", Code: "ES", Region: "Europe & Central Asia", Rank: 53},
	{Name: "Bosnia and Herzegovina", Slug: "bosnia-and-herzegovina", Code: "BA", Region: "Europe & Central Asia", Rank: 54},
	{Name: "Albania", Slug: "albania", Code: "AL", Region: "Europe & Central Asia", Rank: 55},
	{Name: "Kosovo", Slug: "kosovo", Code: "XK", Region: "Europe & Central Asia", Rank: 56},
	{Name: "Kyrgyzstan", Slug: "kyrgyzstan", Code: "KG", Region: "Europe & Central Asia", Rank: 57},
	{Name: "Tajikistan", Slug: "tajikistan", Code: "TJ", Region: "Europe & Central Asia", Rank: 58},
	{Name: "Libya", Slug: "libya", Code: "LY", Region: "Middle East & North Africa", Rank: 59},
	{Name: "Mauritania", Slug: "mauritania", Code: "MR", Region: "Middle East & North Africa", Rank: 60},
	{Name: "Chad", Slug: "chad", Code: "TD", Region: "Sub-Saharan Africa", Rank: 61},
	{Name: "Cameroon", Slug: "cameroon", Code: "CM", Region: "Sub-Saharan Africa", Rank: 62},
	{Name: "Ghana", Slug: "ghana", Code: "GH", Region: "Sub-Saharan Africa", Rank: 63},
	{Name: "Guinea", Slug: "guinea", Code: "GN", Region: "Sub-Saharan Africa", Rank: 64},
}

// Countries returns a copy of the priority country list ordered by rank.
func Countries() []Country {
	out := make([]Country, len(priorityCountries))
	copy(out, priorityCountries)
	return out
}

// CountryBySlug looks up a priority country. Matching is case-insensitive.
func CountryBySlug(slug string) (Country, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, c := range priorityCountries {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Country{}, ErrUnknownCountry
}

// IndexableCountries returns the countries whose rank passes the indexing threshold.
func IndexableCountries(threshold int) []Country {
	out := make([]Country, 0, len(priorityCountries))
	for _, c := range priorityCountries {
		if Indexable(c.Rank, threshold) {
			out = append(out, c)
		}
	}
	return out
}
