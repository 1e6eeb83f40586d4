// Package notifications delivers ingest milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The ingest and error categories can be toggled independently so
// noisy environments can keep failure alerts without per-run chatter.
//
// Extend this package if you need alternative transports; the manager depends
// only on the simple Service interface.
package notifications
