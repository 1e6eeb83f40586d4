package main

import (
	"fmt"
	"os"
	"strings"

	"reelmatch/internal/config"
	"reelmatch/internal/ipc"
	"reelmatch/internal/preflight"
)

func systemStatusLines(cfg *config.Config, statusResp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 5)

	if statusResp.Running {
		detail := "Running"
		if statusResp.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", statusResp.PID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusInfo, "Stopped", colorize))
	}

	if statusResp.Current.Running {
		lines = append(lines, renderStatusLine("Ingest", statusOK, formatRunProgress(statusResp.Current), colorize))
	} else {
		lines = append(lines, renderStatusLine("Ingest", statusInfo, "Idle", colorize))
	}

	lines = append(lines, databaseStatusLine(cfg, statusResp, colorize))

	socket := strings.TrimSpace(statusResp.SocketPath)
	if socket == "" && cfg != nil {
		socket = cfg.SocketPath()
	}
	socketKind := statusInfo
	if statusResp.Running {
		socketKind = statusOK
	}
	lines = append(lines, renderStatusLine("Socket", socketKind, socket, colorize))

	if lastErr := strings.TrimSpace(statusResp.LastError); lastErr != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, lastErr, colorize))
	}
	return lines
}

func databaseStatusLine(cfg *config.Config, statusResp *ipc.StatusResponse, colorize bool) string {
	path := strings.TrimSpace(statusResp.DatabasePath)
	if path == "" && cfg != nil {
		path = cfg.DatabasePath()
	}
	if path == "" {
		return renderStatusLine("Database", statusWarn, "Unknown", colorize)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return renderStatusLine("Database", statusInfo, fmt.Sprintf("%s (not created yet)", path), colorize)
		}
		return renderStatusLine("Database", statusWarn, fmt.Sprintf("%s (%v)", path, err), colorize)
	}
	return renderStatusLine("Database", statusOK, path, colorize)
}

func serviceCheckLines(cfg *config.Config, colorize bool) []string {
	if cfg == nil {
		return []string{renderStatusLine("Configuration", statusError, "Not loaded", colorize)}
	}

	lines := make([]string, 0, 5)
	lines = append(lines, directoryStatusLine("State directory", cfg.Paths.StateDir, colorize))
	lines = append(lines, directoryStatusLine("Log directory", cfg.Paths.LogDir, colorize))

	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		lines = append(lines, renderStatusLine("TMDB", statusError, "API key missing", colorize))
	} else {
		lines = append(lines, renderStatusLine("TMDB", statusOK, "API key configured", colorize))
	}

	llm := cfg.GetLLM()
	if llm.APIKey == "" {
		lines = append(lines, renderStatusLine("Recommendations", statusWarn, "LLM API key missing (recommend disabled)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Recommendations", statusOK, fmt.Sprintf("LLM configured (%s)", llm.Model), colorize))
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		lines = append(lines, renderStatusLine("Notifications", statusOK, fmt.Sprintf("ntfy topic %q", topic), colorize))
	} else {
		lines = append(lines, renderStatusLine("Notifications", statusInfo, "Disabled", colorize))
	}
	return lines
}

func directoryStatusLine(label, path string, colorize bool) string {
	result := preflight.CheckDirectoryAccess(label, path)
	if result.Passed {
		return renderStatusLine(label, statusOK, result.Detail, colorize)
	}
	return renderStatusLine(label, statusError, result.Detail, colorize)
}

func formatRunProgress(status ipc.RunStatus) string {
	var b strings.Builder
	if id := formatRunID(status.RunID); id != "" {
		fmt.Fprintf(&b, "Run %s ", id)
	}
	fmt.Fprintf(&b, "%d/%d processed", status.Processed, status.Total)
	if status.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", status.Failed)
	}
	return b.String()
}
