// Package runstore persists ingestion run history in SQLite.
//
// Each tracker snapshot upserts one row per run, so the table always holds
// the latest observed state alongside the retained log tail. Per-candidate
// dispositions are written once when a run finishes and replay in
// submission order. The store applies embedded migrations on open and is
// safe for concurrent use by the daemon and its API handlers.
package runstore
