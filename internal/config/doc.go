// Package config loads, normalizes, and validates reelmatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OPENROUTER_API_KEY. The Config type centralizes every knob
// the daemon and CLI need, from ingestion batch sizes to match thresholds and
// notification topics.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
