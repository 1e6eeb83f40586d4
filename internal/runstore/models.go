package runstore

import (
	"encoding/json"
	"time"

	"reelmatch/internal/ingest"
)

// Run is the persisted snapshot of one ingestion run. Rows are upserted on
// every tracker commit, so a run's row always reflects its latest snapshot.
type Run struct {
	RunID      string
	State      ingest.State
	Total      int
	Processed  int
	Successful int
	Failed     int
	Percent    float64
	Logs       []string
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Status converts the stored row back into a tracker status for
// presentation.
func (r *Run) Status() ingest.Status {
	if r == nil {
		return ingest.Status{State: ingest.StateIdle}
	}
	logs := make([]string, len(r.Logs))
	copy(logs, r.Logs)
	return ingest.Status{
		RunID:       r.RunID,
		State:       r.State,
		Running:     r.State == ingest.StateRunning,
		Total:       r.Total,
		Processed:   r.Processed,
		Successful:  r.Successful,
		Failed:      r.Failed,
		Percent:     r.Percent,
		Logs:        logs,
		StartedAt:   r.StartedAt,
		LastUpdated: r.UpdatedAt,
	}
}

// Terminal reports whether the stored run reached a terminal state.
func (r *Run) Terminal() bool {
	return r != nil && r.State.Terminal()
}

// Result is one persisted per-candidate disposition within a run. Position
// preserves submission order so listings replay the run deterministically.
type Result struct {
	ID             int64
	RunID          string
	Position       int
	CandidateTitle string
	CandidateYear  string
	Outcome        ingest.Outcome
	Detail         string
	CatalogID      int64
	CatalogTitle   string
	MediaType      string
	Rating         string
	Similarity     float64
	Tier           string
	CreatedAt      time.Time
}

func resultFromItem(runID string, position int, item ingest.ItemResult) *Result {
	result := &Result{
		RunID:          runID,
		Position:       position,
		CandidateTitle: item.Candidate.Title,
		CandidateYear:  item.Candidate.Year,
		Outcome:        item.Outcome,
		Detail:         item.Detail,
		Similarity:     item.Similarity,
		Tier:           string(item.Tier),
	}
	if item.Entry != nil {
		result.CatalogID = item.Entry.ID
		result.CatalogTitle = item.Entry.Title
		result.MediaType = string(item.Entry.MediaType)
		result.Rating = item.Entry.Rating
	}
	return result
}

func encodeLogs(logs []string) (string, error) {
	if len(logs) == 0 {
		return "", nil
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeLogs(raw string) []string {
	if raw == "" {
		return nil
	}
	var logs []string
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		return nil
	}
	return logs
}
