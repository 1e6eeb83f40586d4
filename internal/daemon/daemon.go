package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"reelmatch/internal/api"
	"reelmatch/internal/config"
	"reelmatch/internal/ingest"
	"reelmatch/internal/logging"
	"reelmatch/internal/notifications"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/runstore"
	"reelmatch/internal/suggest"
	"reelmatch/internal/workflow"
)

// Daemon coordinates the background ingest services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *runstore.Store
	resolver ingest.Resolver
	workflow *workflow.Manager
	history  *api.HistoryService
	logPath  string

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	DatabasePath string
	SocketPath   string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *runstore.Store, resolver ingest.Resolver, wf *workflow.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || resolver == nil || wf == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, resolver, workflow manager, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "reelmatchd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		resolver: resolver,
		workflow: wf,
		history:  api.NewHistoryService(store),
		logPath:  filepath.Join(cfg.Paths.LogDir, "reelmatchd.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the optional HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelmatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("configure api server: %w", err)
	}
	if srv != nil {
		if err := srv.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start api server: %w", err)
		}
		d.apiServer = srv
	}

	d.running.Store(true)
	d.logger.Info("reelmatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if d.apiServer != nil {
		d.apiServer.stop()
		d.apiServer = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("reelmatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartIngest launches an ingestion run over candidates.
func (d *Daemon) StartIngest(ctx context.Context, items []reconcile.Candidate, opts workflow.StartOptions) (string, error) {
	if d.workflow == nil {
		return "", errors.New("workflow manager unavailable")
	}
	return d.workflow.StartRun(ctx, items, opts)
}

// StopIngest asks the active run to stop at the next batch boundary.
// It reports whether a run was active to receive the request.
func (d *Daemon) StopIngest() bool {
	if d.workflow == nil {
		return false
	}
	return d.workflow.RequestStop()
}

// Progress returns the live status of the current (or most recent) run.
func (d *Daemon) Progress() ingest.Status {
	if d.workflow == nil {
		return ingest.Status{}
	}
	return d.workflow.Progress()
}

// Resolve matches one candidate against the catalog. A clean miss
// returns empty matches and no error.
func (d *Daemon) Resolve(ctx context.Context, cand reconcile.Candidate) ([]reconcile.Match, error) {
	if d.resolver == nil {
		return nil, errors.New("resolver unavailable")
	}
	if strings.TrimSpace(cand.Title) == "" && strings.TrimSpace(cand.ExternalID) == "" {
		return nil, errors.New("a title or external id is required")
	}
	matches, err := d.resolver.Resolve(ctx, cand)
	if err != nil {
		if errors.Is(err, reconcile.ErrNoMatch) {
			return nil, nil
		}
		return nil, err
	}
	return matches, nil
}

// Recommend runs the quiz flow against the configured suggestion model.
func (d *Daemon) Recommend(ctx context.Context, prefs suggest.Preferences) (api.RecommendResult, error) {
	return api.Recommend(ctx, api.RecommendRequest{
		Config:      d.cfg,
		Logger:      d.logger,
		Preferences: prefs,
	})
}

// History exposes read-only access to persisted runs.
func (d *Daemon) History() *api.HistoryService {
	return d.history
}

// ClearRuns removes all persisted run history.
func (d *Daemon) ClearRuns(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("run store unavailable")
	}
	return d.store.Clear(ctx)
}

// PruneRuns keeps the most recent runs and deletes the rest.
func (d *Daemon) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if d.store == nil {
		return 0, errors.New("run store unavailable")
	}
	return d.store.Prune(ctx, keep)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     summary,
		DatabasePath: d.cfg.DatabasePath(),
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
	}
}
