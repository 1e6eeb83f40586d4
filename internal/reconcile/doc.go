// Package reconcile resolves loosely-specified recommendation candidates to
// authoritative catalog entries.
//
// Resolution tries identifier lookups first (direct external ids, then ids
// extracted from external URLs) and falls back to title search with detail
// fetches. Each hit is scored against the candidate title and classified
// into exact, strong, or weak tiers; a score at or above the auto-accept
// threshold short-circuits remaining lookups to preserve rate-limited
// catalog quota. Ambiguity is not an error: multiple strong or weak matches
// come back as a ranked disambiguation list.
package reconcile
