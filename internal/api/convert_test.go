package api

import (
	"testing"
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/ingest"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/runstore"
	"reelmatch/internal/workflow"
)

func TestFromIngestStatus(t *testing.T) {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	status := ingest.Status{
		RunID:       "run-1",
		State:       ingest.StateRunning,
		Running:     true,
		Total:       10,
		Processed:   5,
		Successful:  4,
		Failed:      1,
		Percent:     50,
		Logs:        []string{"batch 1/2: 4 resolved, 1 failed"},
		StartedAt:   started,
		LastUpdated: started.Add(30 * time.Second),
	}

	dto := FromIngestStatus(status)
	if dto.State != "running" || !dto.Running {
		t.Fatalf("unexpected state conversion: %+v", dto)
	}
	if dto.Processed != 5 || dto.Successful != 4 || dto.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", dto)
	}
	if dto.StartedAt != "2025-06-01T10:00:00.000Z" {
		t.Fatalf("unexpected started timestamp: %q", dto.StartedAt)
	}
	if dto.LastUpdated != "2025-06-01T10:00:30.000Z" {
		t.Fatalf("unexpected updated timestamp: %q", dto.LastUpdated)
	}
	if len(dto.Logs) != 1 {
		t.Fatalf("expected log tail to carry over, got %v", dto.Logs)
	}
}

func TestFromIngestStatusOmitsZeroTimes(t *testing.T) {
	dto := FromIngestStatus(ingest.Status{State: ingest.StateIdle})
	if dto.StartedAt != "" || dto.LastUpdated != "" {
		t.Fatalf("expected empty timestamps for idle status, got %+v", dto)
	}
}

func TestFromStatusSummary(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:   true,
		LastError: "boom",
		Current:   ingest.Status{RunID: "run-2", State: ingest.StateRunning, Running: true},
		RunStats: map[ingest.State]int{
			ingest.StateCompleted: 3,
			ingest.StateAborted:   1,
		},
	}

	dto := FromStatusSummary(summary)
	if !dto.Running || dto.LastError != "boom" {
		t.Fatalf("unexpected summary conversion: %+v", dto)
	}
	if dto.Current.RunID != "run-2" {
		t.Fatalf("unexpected current run: %+v", dto.Current)
	}
	if dto.RunStats["completed"] != 3 || dto.RunStats["aborted"] != 1 {
		t.Fatalf("unexpected run stats: %v", dto.RunStats)
	}
}

func TestFromRun(t *testing.T) {
	updated := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	run := &runstore.Run{
		RunID:      "run-3",
		State:      ingest.StateCompleted,
		Total:      4,
		Processed:  4,
		Successful: 3,
		Failed:     1,
		Percent:    100,
		StartedAt:  updated.Add(-time.Minute),
		UpdatedAt:  updated,
	}

	dto := FromRun(run)
	if dto.RunID != "run-3" || dto.State != "completed" {
		t.Fatalf("unexpected run conversion: %+v", dto)
	}
	if dto.UpdatedAt != "2025-06-02T09:30:00.000Z" {
		t.Fatalf("unexpected updated timestamp: %q", dto.UpdatedAt)
	}
	if got := FromRun(nil); got != (RunSummary{}) {
		t.Fatalf("expected zero summary for nil run, got %+v", got)
	}
}

func TestFromMatchesPreservesOrder(t *testing.T) {
	matches := []reconcile.Match{
		{Entry: catalog.Entry{ID: 1, Title: "Heat", MediaType: catalog.MediaTypeMovie}, Similarity: 1, Tier: reconcile.TierExact},
		{Entry: catalog.Entry{ID: 2, Title: "Heat 2", MediaType: catalog.MediaTypeMovie}, Similarity: 0.82, Tier: reconcile.TierStrong, LowSimilarity: false},
	}

	dtos := FromMatches(matches)
	if len(dtos) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(dtos))
	}
	if dtos[0].Entry.ID != 1 || dtos[0].Tier != "exact" {
		t.Fatalf("unexpected first match: %+v", dtos[0])
	}
	if dtos[1].Entry.ID != 2 || dtos[1].Similarity != 0.82 {
		t.Fatalf("unexpected second match: %+v", dtos[1])
	}
	if FromMatches(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestToCandidatesDropsNothing(t *testing.T) {
	dtos := []Candidate{
		{Title: "Heat", Year: "1995"},
		{Title: "Ronin", ExternalID: "tt0122690", Reason: "slow-burn thriller"},
	}

	cands := ToCandidates(dtos)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].Title != "Heat" || cands[0].Year != "1995" {
		t.Fatalf("unexpected first candidate: %+v", cands[0])
	}
	if cands[1].ExternalID != "tt0122690" || cands[1].Reason != "slow-burn thriller" {
		t.Fatalf("unexpected second candidate: %+v", cands[1])
	}
}
