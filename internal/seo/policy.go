package seo

// DefaultIndexThreshold is the rank cut-off for indexable pSEO pages.
const DefaultIndexThreshold = 50

// Robots meta directives emitted on guide pages.
const (
	RobotsIndex   = "index, follow"
	RobotsNoIndex = "noindex, follow"
)

// Indexable reports whether a country of the given rank should be indexed.
// Ranks are 1-based; anything not strictly below threshold is excluded.
func Indexable(rank, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultIndexThreshold
	}
	return rank > 0 && rank < threshold
}

// RobotsDirective returns the robots meta content for a country rank.
func RobotsDirective(rank, threshold int) string {
	if Indexable(rank, threshold) {
		return RobotsIndex
	}
	return RobotsNoIndex
}
