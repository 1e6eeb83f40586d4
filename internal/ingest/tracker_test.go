package ingest

import (
	"fmt"
	"testing"
)

func TestTrackerStartRunInitializes(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 4)

	status := tracker.Snapshot()
	if status.RunID != "run-1" {
		t.Fatalf("RunID = %q, want run-1", status.RunID)
	}
	if status.State != StateRunning || !status.Running {
		t.Fatalf("state = %s running=%v, want running", status.State, status.Running)
	}
	if status.Total != 4 || status.Processed != 0 || status.Successful != 0 || status.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", status)
	}
	if status.StartedAt.IsZero() || status.LastUpdated.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestTrackerRecordBatchAdvancesCounters(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 10)

	tracker.RecordBatch(3, 1, "batch one")
	status := tracker.Snapshot()
	if status.Successful != 3 || status.Failed != 1 || status.Processed != 4 {
		t.Fatalf("after first batch: %+v", status)
	}
	if status.Percent != 40 {
		t.Fatalf("percent = %v, want 40", status.Percent)
	}

	tracker.RecordBatch(4, 2)
	status = tracker.Snapshot()
	if status.Processed != 10 || status.Successful != 7 || status.Failed != 3 {
		t.Fatalf("after second batch: %+v", status)
	}
	if status.Processed != status.Successful+status.Failed {
		t.Fatalf("processed %d != successful %d + failed %d", status.Processed, status.Successful, status.Failed)
	}
	if status.Percent != 100 {
		t.Fatalf("percent = %v, want 100", status.Percent)
	}
}

func TestTrackerRecordBatchIgnoredWhenNotRunning(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordBatch(5, 5, "ignored")

	status := tracker.Snapshot()
	if status.State != StateIdle || status.Processed != 0 || len(status.Logs) != 0 {
		t.Fatalf("idle tracker mutated: %+v", status)
	}

	tracker.StartRun("run-1", 2)
	tracker.Finish(StateCompleted)
	tracker.RecordBatch(1, 0, "late")
	status = tracker.Snapshot()
	if status.Processed != 0 {
		t.Fatalf("finished tracker accepted a batch: %+v", status)
	}
}

func TestTrackerFinishRequiresTerminalState(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 2)

	tracker.Finish(StateRunning, "not terminal")
	if status := tracker.Snapshot(); status.State != StateRunning {
		t.Fatalf("non-terminal finish changed state to %s", status.State)
	}

	tracker.Finish(StateAborted, "stopping")
	status := tracker.Snapshot()
	if status.State != StateAborted || status.Running {
		t.Fatalf("finish did not land: %+v", status)
	}

	// A second finish after the run ended must not rewrite the outcome.
	tracker.Finish(StateCompleted)
	if status := tracker.Snapshot(); status.State != StateAborted {
		t.Fatalf("second finish rewrote state to %s", status.State)
	}
}

func TestTrackerSnapshotIsolation(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 2)
	tracker.RecordBatch(1, 0, "first")

	before := tracker.Snapshot()
	tracker.RecordBatch(1, 0, "second")

	if before.Processed != 1 || len(before.Logs) != 1 {
		t.Fatalf("earlier snapshot changed: %+v", before)
	}

	// Mutating a snapshot's log slice must not leak into the tracker.
	before.Logs[0] = "tampered"
	after := tracker.Snapshot()
	if after.Logs[0] != "first" {
		t.Fatalf("tracker logs tampered via snapshot: %v", after.Logs)
	}
}

func TestTrackerLogTailKeepsNewestLines(t *testing.T) {
	tracker := NewTracker(WithLogTail(3))
	tracker.StartRun("run-1", 5)
	for i := 1; i <= 5; i++ {
		tracker.RecordBatch(1, 0, fmt.Sprintf("line %d", i))
	}

	status := tracker.Snapshot()
	if len(status.Logs) != 3 {
		t.Fatalf("log tail = %d lines, want 3", len(status.Logs))
	}
	want := []string{"line 3", "line 4", "line 5"}
	for i, line := range want {
		if status.Logs[i] != line {
			t.Fatalf("logs[%d] = %q, want %q", i, status.Logs[i], line)
		}
	}
}

func TestTrackerProcessedNeverDecreases(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 6)

	last := 0
	for i := 0; i < 3; i++ {
		tracker.RecordBatch(1, 1)
		status := tracker.Snapshot()
		if status.Processed < last {
			t.Fatalf("processed went backwards: %d -> %d", last, status.Processed)
		}
		last = status.Processed
	}
	if last != 6 {
		t.Fatalf("processed = %d, want 6", last)
	}

	// Negative inputs clamp to zero rather than rolling counters back.
	tracker.RecordBatch(-4, -2)
	if status := tracker.Snapshot(); status.Processed != 6 {
		t.Fatalf("negative batch moved processed to %d", status.Processed)
	}
}

type recordingSink struct {
	snapshots []Status
}

func (s *recordingSink) RecordSnapshot(status Status) {
	s.snapshots = append(s.snapshots, status)
}

func TestTrackerSinkSeesEveryCommitInOrder(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(WithSink(sink))

	tracker.StartRun("run-1", 4)
	tracker.RecordBatch(2, 0, "batch 1/2")
	tracker.RecordBatch(1, 1, "batch 2/2")
	tracker.Finish(StateCompleted, "completed")

	if len(sink.snapshots) != 4 {
		t.Fatalf("sink saw %d snapshots, want 4", len(sink.snapshots))
	}
	wantProcessed := []int{0, 2, 4, 4}
	for i, want := range wantProcessed {
		if got := sink.snapshots[i].Processed; got != want {
			t.Fatalf("snapshot %d processed = %d, want %d", i, got, want)
		}
	}
	if sink.snapshots[0].State != StateRunning {
		t.Fatalf("first snapshot state = %s, want running", sink.snapshots[0].State)
	}
	last := sink.snapshots[len(sink.snapshots)-1]
	if last.State != StateCompleted || last.Running {
		t.Fatalf("final snapshot = %+v, want completed", last)
	}

	// Sink snapshots are copies; mutating one must not bleed into others.
	sink.snapshots[1].Logs[0] = "tampered"
	if tracker.Snapshot().Logs[0] == "tampered" {
		t.Fatal("sink snapshot shares log backing array with tracker")
	}
}

func TestTrackerResetReturnsToIdle(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 3)
	tracker.RecordBatch(2, 1, "noise")
	tracker.Finish(StateFailed, "cancelled")

	tracker.Reset()
	status := tracker.Snapshot()
	if status.State != StateIdle || status.Running {
		t.Fatalf("reset state = %+v, want idle", status)
	}
	if status.RunID != "" || status.Total != 0 || status.Processed != 0 || len(status.Logs) != 0 {
		t.Fatalf("reset kept run data: %+v", status)
	}
}

func TestTrackerPercentZeroTotal(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("run-1", 0)
	if status := tracker.Snapshot(); status.Percent != 0 {
		t.Fatalf("percent = %v for zero total, want 0", status.Percent)
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateIdle:      false,
		StateRunning:   false,
		StateCompleted: true,
		StateAborted:   true,
		StateFailed:    true,
	}
	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Fatalf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}
