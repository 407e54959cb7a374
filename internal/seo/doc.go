// Package seo holds the programmatic SEO surface of the site: the priority
// country list, pSEO keywords, pagination for country indexes, the indexing
// policy, and the hand-built sitemap XML.
package seo
