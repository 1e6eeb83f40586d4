package preflight

import (
	"context"
	"fmt"
	"strings"

	"reelmatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State and log directories (always checked)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	// TMDB catalog access
	results = append(results, CheckTMDBKey(cfg))

	// Recommendation LLM (when configured)
	if cfg.GetLLM().APIKey != "" {
		results = append(results, CheckLLM(ctx, "Recommendation LLM", cfg.GetLLM()))
	}

	// ntfy notifications (presence only; delivery is tested via test-notify)
	results = append(results, CheckNotifications(cfg))

	return results
}

// CheckTMDBKey verifies that a TMDB API key is configured. Connectivity is
// exercised lazily on first lookup; a missing key fails every lookup, so it
// is worth surfacing up front.
func CheckTMDBKey(cfg *config.Config) Result {
	const name = "TMDB"
	if cfg == nil || strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured"}
}

// CheckNotifications reports whether ntfy notifications are configured.
// An empty topic is not a failure; notifications are optional.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	if cfg == nil {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("ntfy topic %q", topic)}
}
