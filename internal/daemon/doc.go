// Package daemon hosts the long-running reelmatch process: it owns the
// run store, the workflow manager, and the optional HTTP API, and it
// enforces single-instance execution through a lock file.
//
// # Key Types
//
//   - Daemon: coordinates startup and shutdown of the background
//     services and answers control-plane requests (status, ingest
//     start/stop, resolve, recommend, history).
//   - Status: point-in-time daemon state returned to IPC and HTTP
//     clients.
//
// # Design Notes
//
// The daemon acquires a flock-based lock under the state directory
// before reporting itself as running; a second instance fails fast with
// a clear error instead of corrupting shared state. Stop is idempotent
// and releases the lock so a follow-up start can succeed. The HTTP API
// server is only constructed when api_bind is configured and shares the
// daemon's lifetime.
package daemon
