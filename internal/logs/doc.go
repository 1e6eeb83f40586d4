// Package logs provides file tailing and offset helpers shared by the CLI and
// daemon diagnostics.
//
// It reads log files with bounded memory usage, supports negative offsets for
// "last N lines" requests, and powers the follow mode behind
// `reelmatch logs --follow`. Callers supply context deadlines so background
// polling shuts down cleanly when the CLI exits.
//
// TailClient offers the same semantics over the daemon HTTP API for hosts
// that only expose the network listener.
package logs
