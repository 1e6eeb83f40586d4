package reconcile

import "reelmatch/internal/catalog"

// Tier classifies match confidence.
type Tier string

const (
	TierExact  Tier = "exact"
	TierStrong Tier = "strong"
	TierWeak   Tier = "weak"
)

// Match pairs a catalog entry with its similarity against the candidate
// title. Weak matches are flagged LowSimilarity so callers can render them
// as long shots.
type Match struct {
	Entry         catalog.Entry `json:"entry"`
	Similarity    float64       `json:"similarity"`
	Tier          Tier          `json:"tier"`
	LowSimilarity bool          `json:"low_similarity,omitempty"`
}

func (r *Resolver) matchFor(entry catalog.Entry, similarity float64) Match {
	tier := TierWeak
	switch {
	case similarity >= r.autoAccept:
		tier = TierExact
	case similarity >= r.strongMatch:
		tier = TierStrong
	}
	return Match{
		Entry:         entry,
		Similarity:    similarity,
		Tier:          tier,
		LowSimilarity: tier == TierWeak,
	}
}
