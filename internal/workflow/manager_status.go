package workflow

import (
	"context"

	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
)

// StatusSummary represents lightweight run-manager diagnostics.
type StatusSummary struct {
	Running   bool
	LastError string
	Current   ingest.Status
	RunStats  map[ingest.State]int
}

// Status returns the latest run information plus historical counts.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	m.mu.RUnlock()

	summary := StatusSummary{Running: running, Current: m.tracker.Snapshot()}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if m.store != nil {
		stats, err := m.store.Stats(ctx)
		if err != nil {
			m.logger.Warn("failed to read run stats", logging.Error(err))
		}
		summary.RunStats = stats
	}
	return summary
}

// Progress returns the live tracker snapshot for the polling endpoint.
func (m *Manager) Progress() ingest.Status {
	return m.tracker.Snapshot()
}
