// Package workflow coordinates ingestion runs for the daemon.
//
// The Manager enforces single-run execution, builds batch jobs from
// configuration, mirrors tracker snapshots into the run store, and pushes
// lifecycle notifications. Runs execute on their own goroutine detached
// from the caller's cancellation; RequestStop stops gracefully at a batch
// boundary while Stop interrupts for shutdown.
package workflow
