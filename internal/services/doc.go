// Package services defines shared utilities consumed by the reconciliation
// pipeline and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, batch numbers, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into retryable vs permanent outcomes.
//   - The shared HTTP status error carrying Retry-After hints from
//     rate-limited collaborators.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
