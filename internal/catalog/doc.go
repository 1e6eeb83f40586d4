// Package catalog exposes the authoritative metadata catalog to the rest of
// the pipeline.
//
// It owns the canonical Entry shape: every external payload is converted to
// Entry (or SearchResult) at this package's boundary, immediately after the
// call returns, and no other package reads raw catalog payloads. The Client
// wraps the TMDB API with a token-bucket rate limiter and a short-TTL read
// cache so repeated lookups within a run do not spend request quota.
package catalog
