package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/config"
	"reelmatch/internal/daemon"
	"reelmatch/internal/ingest"
	"reelmatch/internal/ipc"
	"reelmatch/internal/logging"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/runstore"
	"reelmatch/internal/testsupport"
	"reelmatch/internal/workflow"
)

// stubResolver returns the same ranked matches for every candidate.
type stubResolver struct {
	matches []reconcile.Match
	err     error
}

func (s stubResolver) Resolve(context.Context, reconcile.Candidate) ([]reconcile.Match, error) {
	return s.matches, s.err
}

func exactMatchResolver() stubResolver {
	return stubResolver{matches: []reconcile.Match{
		{
			Entry: catalog.Entry{
				ID:        550,
				Title:     "Fight Club",
				Year:      "1999",
				MediaType: catalog.MediaTypeMovie,
				Rating:    "R",
			},
			Similarity: 0.97,
			Tier:       reconcile.TierExact,
		},
	}}
}

// echoResolver fabricates one exact match per candidate so multi-item
// runs resolve to distinct catalog ids.
type echoResolver struct {
	rating string
}

func (e echoResolver) Resolve(_ context.Context, cand reconcile.Candidate) ([]reconcile.Match, error) {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(cand.Title)))
	rating := e.rating
	if rating == "" {
		rating = "PG"
	}
	return []reconcile.Match{{
		Entry: catalog.Entry{
			ID:        int64(h.Sum64() & 0x7fffffff),
			Title:     cand.Title,
			Year:      cand.Year,
			MediaType: catalog.MediaTypeMovie,
			Rating:    rating,
		},
		Similarity: 0.97,
		Tier:       reconcile.TierExact,
	}}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *runstore.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
	logPath    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	return setupCLITestEnvWithResolver(t, exactMatchResolver())
}

func setupCLITestEnvWithResolver(t *testing.T, resolver ingest.Resolver) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg := testsupport.NewConfig(t)
	logPath := filepath.Join(cfg.Paths.LogDir, "reelmatchd.log")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if _, err := os.Stat(logPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(logPath, nil, 0o644); err != nil {
			t.Fatalf("create log file: %v", err)
		}
	}

	configPath := filepath.Join(homeDir, ".config", "reelmatch", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	mgr, err := workflow.NewManager(cfg, resolver, store, logger)
	if err != nil {
		t.Fatalf("workflow.NewManager: %v", err)
	}

	d, err := daemon.New(cfg, store, resolver, mgr, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[tmdb]\napi_key = %q\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.TMDB.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
