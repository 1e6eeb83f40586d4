package api

import (
	"context"

	"reelmatch/internal/ingest"
	"reelmatch/internal/runstore"
)

// RunReader abstracts run-history persistence interactions needed for API
// queries.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]*runstore.Run, error)
	GetRun(ctx context.Context, runID string) (*runstore.Run, error)
	LatestRun(ctx context.Context) (*runstore.Run, error)
	ResultsForRun(ctx context.Context, runID string) ([]*runstore.Result, error)
	Stats(ctx context.Context) (map[ingest.State]int, error)
}

// HistoryService exposes read-only run-history operations returning API DTOs.
type HistoryService struct {
	store RunReader
}

// NewHistoryService constructs a HistoryService around the provided reader.
func NewHistoryService(store RunReader) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store}
}

// List returns run summaries newest-first, up to limit.
func (s *HistoryService) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromRuns(runs), nil
}

// Describe fetches one run with its per-candidate results. A missing run
// yields nil without error.
func (s *HistoryService) Describe(ctx context.Context, runID string) (*RunDetailResponse, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	run, err := s.store.GetRun(ctx, runID)
	if err != nil || run == nil {
		return nil, err
	}
	results, err := s.store.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &RunDetailResponse{Run: FromRun(run), Results: FromRunResults(results)}, nil
}

// Latest fetches the most recently updated run, or nil when history is empty.
func (s *HistoryService) Latest(ctx context.Context) (*RunSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	run, err := s.store.LatestRun(ctx)
	if err != nil || run == nil {
		return nil, err
	}
	summary := FromRun(run)
	return &summary, nil
}

// Stats returns run-history counts keyed by state string.
func (s *HistoryService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeRunStats(stats), nil
}
