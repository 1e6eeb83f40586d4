package textutil

import "strings"

const (
	// maxPlausibleTitleLength is the raw length beyond which a string is more
	// likely a description or multi-title blob than a real title.
	maxPlausibleTitleLength = 50
	// suspiciousScoreCap bounds the score for degenerate inputs.
	suspiciousScoreCap = 0.5
	// containmentScore is returned when one normalized title contains the
	// other but their lengths diverge too far for edit distance to be fair.
	containmentScore = 0.7
	// containmentLengthRatio is the shorter/longer ratio below which the
	// containment signal applies.
	containmentLengthRatio = 0.7
)

// TitleSimilarity scores how closely two display titles match, in [0,1].
// Identical normalized titles score 1.0. Raw inputs carrying list separators
// (comma, semicolon, pipe) or exceeding the plausible title length are
// treated as suspicious and capped at 0.5 so they never auto-accept.
// Substring containment with strongly diverging lengths scores a flat 0.7.
// Everything else scores by normalized Levenshtein distance. Deterministic
// for fixed inputs.
func TitleSimilarity(a, b string) float64 {
	normA := NormalizeTitle(a)
	normB := NormalizeTitle(b)
	if normA == normB {
		return 1.0
	}

	suspicious := isSuspiciousTitle(a) || isSuspiciousTitle(b)

	score := similarityScore(normA, normB)
	if suspicious && score > suspiciousScoreCap {
		return suspiciousScoreCap
	}
	return score
}

func similarityScore(normA, normB string) float64 {
	if normA == "" || normB == "" {
		return 0
	}

	shorter, longer := normA, normB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		if float64(len(shorter))/float64(len(longer)) < containmentLengthRatio {
			return containmentScore
		}
	}

	distance := LevenshteinDistance(normA, normB)
	length := max(len([]rune(normA)), len([]rune(normB)))
	return 1.0 - float64(distance)/float64(length)
}

func isSuspiciousTitle(raw string) bool {
	return strings.ContainsAny(raw, ",;|") || len(raw) > maxPlausibleTitleLength
}
