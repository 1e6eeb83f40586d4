// Package textutil provides title normalization and similarity scoring.
//
// The primary use cases are:
//   - Normalizing display titles into a comparable canonical form
//   - Scoring how closely a candidate title matches a catalog title
//
// Normalization lowercases text, strips non-alphanumeric characters, and
// collapses whitespace. Similarity is edit-distance based with guards for
// degenerate inputs (multi-title lists, overlong strings) and a substring
// containment signal for truncated titles.
package textutil
