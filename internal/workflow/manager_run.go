package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/services"
)

// StartOptions adjusts one run relative to config defaults.
type StartOptions struct {
	// MaxRating overrides the configured rating ceiling for this run.
	MaxRating string
}

// StartRun launches an asynchronous ingestion run over items and returns
// its run id. Only one run may execute at a time; a second request fails
// with ErrRunActive. The run detaches from ctx's cancellation but keeps
// its values for log correlation.
func (m *Manager) StartRun(ctx context.Context, items []reconcile.Candidate, opts StartOptions) (string, error) {
	if len(items) == 0 {
		return "", services.Wrap(services.ErrValidation, "workflow", "start run", "no candidates", nil)
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return "", ErrRunActive
	}
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.running = true
	m.lastRun = runID
	m.stopRequested.Store(false)
	m.wg.Add(1)
	m.mu.Unlock()

	ceiling := strings.TrimSpace(opts.MaxRating)
	if ceiling == "" {
		ceiling = m.cfg.Filter.DefaultMaxRating
	}

	job := ingest.Job{
		RunID:             runID,
		Items:             items,
		BatchSize:         m.cfg.Ingest.BatchSize,
		MaxErrorFraction:  m.cfg.Ingest.MaxErrorFraction,
		MaxRetriesPerItem: m.cfg.Ingest.MaxRetriesPerItem,
		RetryDelay:        m.cfg.Ingest.RetryDelay(),
		BatchDelay:        m.cfg.Ingest.BatchDelay(),
		MaxRating:         ceiling,
		SmallRunThreshold: m.cfg.Ingest.SmallRunThreshold,
		SmallRunBatchSize: m.cfg.Ingest.SmallRunBatchSize,
	}

	go m.runJob(runCtx, job)
	return runID, nil
}

// RequestStop asks the active run to stop at the next batch boundary.
// In-flight item attempts finish first. It reports whether a run was
// active to receive the request.
func (m *Manager) RequestStop() bool {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()
	if !running {
		return false
	}
	m.stopRequested.Store(true)
	return true
}

// Stop cancels any active run and waits for it to wind down. Intended for
// daemon shutdown; unlike RequestStop it interrupts in-flight attempts.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Manager) runJob(ctx context.Context, job ingest.Job) {
	defer m.wg.Done()
	start := time.Now()
	logger := m.logger.With(logging.String(logging.FieldRunID, job.RunID))
	logger.Info("ingest run starting", logging.Int("items", len(job.Items)))
	m.notifyStarted(ctx, job.RunID, len(job.Items))

	status, results, err := m.orch.Run(ctx, job)

	if m.store != nil && len(results) > 0 {
		saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if saveErr := m.store.SaveResults(saveCtx, job.RunID, results); saveErr != nil {
			logger.Warn("failed to persist run results", logging.Error(saveErr))
		}
		cancelSave()
	}

	m.notifyOutcome(ctx, job.RunID, status, results, err, time.Since(start))

	if err != nil {
		logger.Warn("ingest run ended with error",
			logging.String("state", string(status.State)),
			logging.Error(err))
	} else {
		logger.Info("ingest run finished",
			logging.String("state", string(status.State)),
			logging.Int("successful", status.Successful),
			logging.Int("failed", status.Failed))
	}

	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.running = false
	m.lastErr = err
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
