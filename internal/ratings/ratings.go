package ratings

import "strings"

// Rating scales ordered from most to least restrictive audience.
var (
	filmScale   = []string{"G", "PG", "PG-13", "R"}
	seriesScale = []string{"TV-Y", "TV-PG", "TV-14", "TV-MA"}
)

// DefaultCeiling is applied when a ceiling is empty or unrecognized. It admits
// the mid-range family {G, PG, PG-13, TV-Y, TV-PG, TV-14} and excludes R and
// TV-MA content.
const DefaultCeiling = "PG-13"

// admissible maps every known ceiling to its ordered admissible set. The two
// scales have positional equivalence (G<->TV-Y, PG<->TV-PG, PG-13<->TV-14,
// R<->TV-MA), so a ceiling at index i admits indexes <= i on both scales.
var admissible = buildTable()

func buildTable() map[string][]string {
	table := make(map[string][]string, len(filmScale)+len(seriesScale))
	for i, rating := range filmScale {
		table[rating] = levelSet(i)
	}
	for i, rating := range seriesScale {
		table[rating] = levelSet(i)
	}
	return table
}

func levelSet(level int) []string {
	out := make([]string, 0, (level+1)*2)
	out = append(out, filmScale[:level+1]...)
	out = append(out, seriesScale[:level+1]...)
	return out
}

// AllowedFor returns the ordered admissible rating set for the supplied
// ceiling. Film-scale entries precede series-scale entries; callers receive a
// fresh slice. Empty or unrecognized ceilings fall back to DefaultCeiling.
func AllowedFor(ceiling string) []string {
	allowed, ok := admissible[canonical(ceiling)]
	if !ok {
		allowed = admissible[DefaultCeiling]
	}
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// Set provides O(1) membership tests over an admissible rating set.
type Set map[string]struct{}

// SetFor builds the membership set for the supplied ceiling, with the same
// fallback behavior as AllowedFor.
func SetFor(ceiling string) Set {
	allowed, ok := admissible[canonical(ceiling)]
	if !ok {
		allowed = admissible[DefaultCeiling]
	}
	set := make(Set, len(allowed))
	for _, rating := range allowed {
		set[rating] = struct{}{}
	}
	return set
}

// Allows reports whether the supplied rating falls within the set. Entries
// with no rating pass: unclassified content is not filtered out.
func (s Set) Allows(rating string) bool {
	key := canonical(rating)
	if key == "" {
		return true
	}
	_, ok := s[key]
	return ok
}

// Known reports whether the token is one of the eight recognized ratings.
func Known(rating string) bool {
	_, ok := admissible[canonical(rating)]
	return ok
}

func canonical(rating string) string {
	return strings.ToUpper(strings.TrimSpace(rating))
}
