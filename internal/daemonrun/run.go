// Package daemonrun wires configuration, storage, the workflow manager, and
// the IPC server into a running reelmatch daemon process. It owns process
// concerns the daemon package stays out of: signal handling, log file
// rotation, and the PID file.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"reelmatch/internal/api"
	"reelmatch/internal/config"
	"reelmatch/internal/daemon"
	"reelmatch/internal/ipc"
	"reelmatch/internal/logging"
	"reelmatch/internal/notifications"
	"reelmatch/internal/runstore"
	"reelmatch/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	Diagnostic bool
}

// Run starts the reelmatch daemon runtime loop and blocks until SIGINT or
// SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelmatchd-%s.log", startedAt))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	if opts.Diagnostic {
		level = "debug"
	}

	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if opts.Diagnostic {
		logger.Info("diagnostic mode enabled",
			logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update reelmatchd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "reelmatchd-*.log", Exclude: []string{logPath}},
	)

	if err := writePIDFile(cfg.PIDFilePath()); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PIDFilePath())

	store, err := runstore.Open(cfg)
	if err != nil {
		logger.Error("open run store", logging.Error(err))
		return err
	}
	defer store.Close()

	resolver, err := api.NewResolverFromConfig(cfg, logger)
	if err != nil {
		logger.Error("build resolver", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	manager, err := workflow.NewManagerWithNotifier(cfg, resolver, store, logger, notifier)
	if err != nil {
		return fmt.Errorf("create workflow manager: %w", err)
	}

	d, err := daemon.New(cfg, store, resolver, manager, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and state directory access"),
		)
	}

	<-signalCtx.Done()
	logger.Info("reelmatch daemon shutting down")
	return nil
}

// ensureCurrentLogPointer keeps a stable reelmatchd.log name pointing at the
// newest timestamped log so tail consumers never chase filenames.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "reelmatchd.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.String("tmdb_base_url", cfg.TMDB.BaseURL),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", strings.TrimSpace(cfg.Paths.APIBind)),
		logging.String("database_path", cfg.DatabasePath()),
	)
}
