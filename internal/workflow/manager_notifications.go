package workflow

import (
	"context"
	"errors"
	"time"

	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
)

func (m *Manager) notifyStarted(ctx context.Context, runID string, count int) {
	if m.notifier == nil {
		return
	}
	m.send(ctx, "ingest started", func(ctx context.Context) error {
		return m.notifier.NotifyIngestStarted(ctx, runID, count)
	})
}

func (m *Manager) notifyOutcome(ctx context.Context, runID string, status ingest.Status, results []ingest.ItemResult, runErr error, elapsed time.Duration) {
	if m.notifier == nil {
		return
	}

	accepted := 0
	for _, result := range results {
		if result.Outcome == ingest.OutcomeAccepted {
			accepted++
		}
	}

	switch {
	case errors.Is(runErr, ingest.ErrBudgetExceeded):
		m.send(ctx, "ingest aborted", func(ctx context.Context) error {
			return m.notifier.NotifyIngestAborted(ctx, runID, "error budget exceeded")
		})
	case runErr != nil:
		if errors.Is(runErr, context.Canceled) {
			m.logger.Debug("run cancelled, skipping notification",
				logging.String(logging.FieldRunID, runID))
			return
		}
		m.send(ctx, "ingest error", func(ctx context.Context) error {
			return m.notifier.NotifyError(ctx, runErr, "ingest")
		})
	case status.State == ingest.StateAborted:
		m.send(ctx, "ingest aborted", func(ctx context.Context) error {
			return m.notifier.NotifyIngestAborted(ctx, runID, "stopped by request")
		})
	default:
		m.send(ctx, "ingest completed", func(ctx context.Context) error {
			return m.notifier.NotifyIngestCompleted(ctx, runID, accepted, status.Failed, elapsed)
		})
	}
}

func (m *Manager) send(ctx context.Context, event string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send notification",
				logging.String("event", event))
			return
		}
		m.logger.Debug("notification failed",
			logging.String("event", event),
			logging.Error(err))
	}
}
