package workflow

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"reelmatch/internal/config"
	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
	"reelmatch/internal/notifications"
	"reelmatch/internal/runstore"
)

// ErrRunActive is returned when a run is requested while another is still
// executing.
var ErrRunActive = errors.New("ingest run already active")

// Manager owns the ingestion run lifecycle: one run at a time, started
// asynchronously, stoppable at batch boundaries, with snapshots mirrored to
// the run store and milestones pushed to the notifier.
type Manager struct {
	cfg      *config.Config
	store    *runstore.Store
	tracker  *ingest.Tracker
	orch     *ingest.Orchestrator
	logger   *slog.Logger
	notifier notifications.Service

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
	lastRun string

	stopRequested atomic.Bool
}

// NewManager constructs a run manager with the default ntfy notifier.
func NewManager(cfg *config.Config, resolver ingest.Resolver, store *runstore.Store, logger *slog.Logger) (*Manager, error) {
	return NewManagerWithNotifier(cfg, resolver, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a run manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, resolver ingest.Resolver, store *runstore.Store, logger *slog.Logger, notifier notifications.Service) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("workflow: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var trackerOpts []ingest.TrackerOption
	if store != nil {
		trackerOpts = append(trackerOpts, ingest.WithSink(runstore.NewSnapshotRecorder(store, logger)))
	}
	tracker := ingest.NewTracker(trackerOpts...)

	manager := &Manager{
		cfg:      cfg,
		store:    store,
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		notifier: notifier,
	}

	orch, err := ingest.NewOrchestrator(resolver, tracker, logger,
		ingest.WithContinueFlag(func() bool { return !manager.stopRequested.Load() }))
	if err != nil {
		return nil, err
	}
	manager.orch = orch
	return manager, nil
}

// Active reports whether a run is currently executing.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastRunID returns the identifier of the most recently started run, or an
// empty string when no run has started since boot.
func (m *Manager) LastRunID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}
