// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal run, match, and catalog models into
// transport-friendly DTOs that web front ends and the CLI can render without
// coupling to internal types.
//
// # Key Types
//
// RunStatus: live tracker snapshot for one ingestion run (counters, percent,
// bounded log tail).
//
// WorkflowStatus: run-manager state plus historical run counts.
//
// RunSummary/RunResult: persisted run history and per-candidate dispositions.
//
// RankedMatch: a catalog entry with its reconciliation similarity and tier.
//
// # Converters
//
// FromIngestStatus/FromStatusSummary: internal status -> DTO.
//
// FromRun/FromRunResults: runstore rows -> DTOs.
//
// ToCandidates/FromMatches: wire candidates and ranked matches.
//
// # Workflows
//
// ResolveCandidate and Recommend assemble the catalog resolver and suggestion
// client from config and run the one-shot flows shared by the CLI and the
// daemon endpoints.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (ingest.State, ingest.Outcome, reconcile.Tier) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds.
package api
