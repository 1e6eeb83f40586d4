// Package suggest provides an OpenRouter-style chat client that turns quiz
// preferences into candidate titles for reconciliation.
//
// This package is used by:
//   - Recommend flow: one suggestion call per user-facing request
//   - Daemon health checks: verify the API key and model are usable
//
// # Request Shape
//
// The client sends the viewer's preferences to a configured chat model with a
// structured prompt requesting JSON output. The response contains a ranked
// list of {title, year, reason} suggestions, decoded into
// reconcile.Candidate values.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title,
// timeout. When unconfigured the recommend surface reports a configuration
// error instead of calling out.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Suggest: send preferences, receive candidates.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Calls retry on HTTP 408/429/5xx, network timeouts, and empty completions
// through the shared retry helper (base 1s, max 10s, up to 5 attempts by
// default). Malformed JSON and API-reported errors are permanent. Context
// cancellation aborts retries immediately.
package suggest
