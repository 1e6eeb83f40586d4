package ingest

import (
	"sync"
	"time"
)

// State tracks run lifecycle. Running is re-entrant only after a terminal
// state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateAborted, StateFailed:
		return true
	default:
		return false
	}
}

// Status is the externally observable progress record for one ingestion
// run. Observers always receive a full copy; Processed never decreases
// within a run, and Processed == Successful + Failed at every observation
// point.
type Status struct {
	RunID       string    `json:"run_id,omitempty"`
	State       State     `json:"state"`
	Running     bool      `json:"running"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Percent     float64   `json:"percent"`
	Logs        []string  `json:"logs,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// SnapshotSink receives every committed tracker snapshot, in commit order.
// Implementations must not call back into the tracker.
type SnapshotSink interface {
	RecordSnapshot(status Status)
}

// DefaultLogTail bounds how many status log lines a run retains.
const DefaultLogTail = 200

// Tracker holds the shared progress record. Mutators replace the record as
// a whole, so readers never observe a partially updated status.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	sink    SnapshotSink
	logTail int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSink mirrors every committed snapshot to sink.
func WithSink(sink SnapshotSink) TrackerOption {
	return func(t *Tracker) {
		t.sink = sink
	}
}

// WithLogTail overrides how many log lines are retained.
func WithLogTail(lines int) TrackerOption {
	return func(t *Tracker) {
		if lines > 0 {
			t.logTail = lines
		}
	}
}

// NewTracker returns a tracker at idle defaults.
func NewTracker(opts ...TrackerOption) *Tracker {
	tracker := &Tracker{
		status:  Status{State: StateIdle},
		logTail: DefaultLogTail,
	}
	for _, opt := range opts {
		opt(tracker)
	}
	return tracker
}

// Reset returns the tracker to idle defaults, discarding the previous run's
// counters and logs.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = Status{State: StateIdle, LastUpdated: time.Now().UTC()}
	t.mirrorLocked()
}

// StartRun begins a new run: counters zeroed, state Running. The caller is
// responsible for not starting a run while a previous one is still
// running.
func (t *Tracker) StartRun(runID string, total int) {
	if total < 0 {
		total = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	t.status = Status{
		RunID:       runID,
		State:       StateRunning,
		Running:     true,
		Total:       total,
		StartedAt:   now,
		LastUpdated: now,
	}
	t.mirrorLocked()
}

// RecordBatch commits one batch outcome: counters move forward together
// with the log lines in a single replace. Ignored when no run is active.
func (t *Tracker) RecordBatch(successes, failures int, lines ...string) {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State != StateRunning {
		return
	}
	next := t.status
	next.Successful += successes
	next.Failed += failures
	next.Processed += successes + failures
	next.Percent = percent(next.Processed, next.Total)
	next.Logs = appendTail(next.Logs, lines, t.logTail)
	next.LastUpdated = time.Now().UTC()
	t.status = next
	t.mirrorLocked()
}

// Finish moves the active run to a terminal state. Ignored when no run is
// active or the state is not terminal.
func (t *Tracker) Finish(state State, lines ...string) {
	if !state.Terminal() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State != StateRunning {
		return
	}
	next := t.status
	next.State = state
	next.Running = false
	next.Logs = appendTail(next.Logs, lines, t.logTail)
	next.LastUpdated = time.Now().UTC()
	t.status = next
	t.mirrorLocked()
}

// Snapshot returns a full copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

func (t *Tracker) copyLocked() Status {
	snapshot := t.status
	if len(t.status.Logs) > 0 {
		snapshot.Logs = make([]string, len(t.status.Logs))
		copy(snapshot.Logs, t.status.Logs)
	}
	return snapshot
}

func (t *Tracker) mirrorLocked() {
	if t.sink == nil {
		return
	}
	t.sink.RecordSnapshot(t.copyLocked())
}

func percent(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(processed) / float64(total) * 100
}

func appendTail(existing, lines []string, tail int) []string {
	merged := make([]string, 0, len(existing)+len(lines))
	merged = append(merged, existing...)
	merged = append(merged, lines...)
	if tail > 0 && len(merged) > tail {
		merged = merged[len(merged)-tail:]
	}
	return merged
}
