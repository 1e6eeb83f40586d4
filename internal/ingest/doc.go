// Package ingest drives reconciliation across large candidate sets as a
// fault-tolerant batch process.
//
// The orchestrator partitions a job into batches, fans each batch out,
// retries individual items through the shared retry helper, and commits one
// atomic tracker update per batch. A running error budget aborts the run
// when failures exceed the configured fraction of the total, protecting
// catalog quota during systemic outages. Exactly one batch is in flight at
// a time.
//
// The tracker is the only shared mutable state: the run goroutine writes,
// any number of observers poll full snapshots. The manager owns run
// lifecycle (start, graceful stop, persistence, notifications) around the
// orchestrator.
package ingest
