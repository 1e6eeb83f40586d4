package runstore

import (
	"context"
	"log/slog"
	"time"

	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
)

// SnapshotRecorder adapts a Store to the tracker's snapshot sink. Snapshots
// arrive in commit order while the tracker lock is held, so writes carry a
// short timeout and failures are logged rather than surfaced.
type SnapshotRecorder struct {
	store   *Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewSnapshotRecorder wraps store for use with ingest.WithSink.
func NewSnapshotRecorder(store *Store, logger *slog.Logger) *SnapshotRecorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SnapshotRecorder{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "runstore"),
		timeout: 5 * time.Second,
	}
}

// RecordSnapshot persists one tracker snapshot. Idle snapshots carry no run
// id and are skipped.
func (r *SnapshotRecorder) RecordSnapshot(status ingest.Status) {
	if r == nil || r.store == nil || status.RunID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.SaveSnapshot(ctx, status); err != nil {
		r.logger.Warn("failed to persist run snapshot",
			logging.String(logging.FieldRunID, status.RunID),
			logging.Error(err))
	}
}
