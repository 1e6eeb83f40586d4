package api

import (
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/ingest"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/runstore"
	"reelmatch/internal/suggest"
	"reelmatch/internal/workflow"
)

// FromCatalogEntry converts a catalog entry to its API representation.
func FromCatalogEntry(entry catalog.Entry) CatalogEntry {
	return CatalogEntry{
		ID:          entry.ID,
		Title:       entry.Title,
		Year:        entry.Year,
		MediaType:   string(entry.MediaType),
		Rating:      entry.Rating,
		Genres:      entry.Genres,
		Overview:    entry.Overview,
		VoteAverage: entry.VoteAverage,
		PosterURL:   entry.PosterURL,
	}
}

// FromMatch converts a reconciliation match to its API representation.
func FromMatch(match reconcile.Match) RankedMatch {
	return RankedMatch{
		Entry:         FromCatalogEntry(match.Entry),
		Similarity:    match.Similarity,
		Tier:          string(match.Tier),
		LowSimilarity: match.LowSimilarity,
	}
}

// FromMatches converts a ranked match list into API DTOs.
func FromMatches(matches []reconcile.Match) []RankedMatch {
	if len(matches) == 0 {
		return nil
	}
	out := make([]RankedMatch, 0, len(matches))
	for _, match := range matches {
		out = append(out, FromMatch(match))
	}
	return out
}

// FromCandidate converts an internal candidate to its wire form.
func FromCandidate(cand reconcile.Candidate) Candidate {
	return Candidate{
		Title:       cand.Title,
		Year:        cand.Year,
		ExternalID:  cand.ExternalID,
		ExternalURL: cand.ExternalURL,
		Reason:      cand.Reason,
	}
}

// ToCandidate converts a wire candidate to its internal form.
func ToCandidate(dto Candidate) reconcile.Candidate {
	return reconcile.Candidate{
		Title:       dto.Title,
		Year:        dto.Year,
		ExternalID:  dto.ExternalID,
		ExternalURL: dto.ExternalURL,
		Reason:      dto.Reason,
	}
}

// ToCandidates converts a wire candidate list to internal candidates.
func ToCandidates(dtos []Candidate) []reconcile.Candidate {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]reconcile.Candidate, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, ToCandidate(dto))
	}
	return out
}

// FromIngestStatus converts a tracker snapshot to API payload.
func FromIngestStatus(status ingest.Status) RunStatus {
	return RunStatus{
		RunID:       status.RunID,
		State:       string(status.State),
		Running:     status.Running,
		Total:       status.Total,
		Processed:   status.Processed,
		Successful:  status.Successful,
		Failed:      status.Failed,
		Percent:     status.Percent,
		Logs:        status.Logs,
		StartedAt:   FormatTime(status.StartedAt),
		LastUpdated: FormatTime(status.LastUpdated),
	}
}

// FromStatusSummary converts a run-manager status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:  summary.Running,
		Current:  FromIngestStatus(summary.Current),
		RunStats: MergeRunStats(summary.RunStats),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	return wf
}

// MergeRunStats produces a string-keyed representation of run-history stats.
func MergeRunStats(stats map[ingest.State]int) map[string]int {
	out := make(map[string]int, len(stats))
	for state, count := range stats {
		out[string(state)] = count
	}
	return out
}

// FromRun converts a persisted run to its API representation.
func FromRun(run *runstore.Run) RunSummary {
	if run == nil {
		return RunSummary{}
	}
	return RunSummary{
		RunID:      run.RunID,
		State:      string(run.State),
		Total:      run.Total,
		Processed:  run.Processed,
		Successful: run.Successful,
		Failed:     run.Failed,
		Percent:    run.Percent,
		StartedAt:  FormatTime(run.StartedAt),
		UpdatedAt:  FormatTime(run.UpdatedAt),
	}
}

// FromRuns converts a slice of persisted runs into API DTOs.
func FromRuns(runs []*runstore.Run) []RunSummary {
	if len(runs) == 0 {
		return nil
	}
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromRun(run))
	}
	return out
}

// FromRunResult converts one persisted disposition to its API representation.
func FromRunResult(result *runstore.Result) RunResult {
	if result == nil {
		return RunResult{}
	}
	return RunResult{
		Position:       result.Position,
		CandidateTitle: result.CandidateTitle,
		CandidateYear:  result.CandidateYear,
		Outcome:        string(result.Outcome),
		Detail:         result.Detail,
		CatalogID:      result.CatalogID,
		CatalogTitle:   result.CatalogTitle,
		MediaType:      result.MediaType,
		Rating:         result.Rating,
		Similarity:     result.Similarity,
		Tier:           result.Tier,
	}
}

// FromRunResults converts persisted dispositions into API DTOs.
func FromRunResults(results []*runstore.Result) []RunResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]RunResult, 0, len(results))
	for _, result := range results {
		out = append(out, FromRunResult(result))
	}
	return out
}

// ToPreferences converts wire quiz preferences to the suggestion client form.
func ToPreferences(dto QuizPreferences) suggest.Preferences {
	return suggest.Preferences{
		MediaType: dto.MediaType,
		Genres:    dto.Genres,
		Moods:     dto.Moods,
		Era:       dto.Era,
		MaxRating: dto.MaxRating,
		Count:     dto.Count,
		Notes:     dto.Notes,
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
