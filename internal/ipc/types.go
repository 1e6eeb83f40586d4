package ipc

import "reelmatch/internal/api"

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Candidate mirrors the HTTP API candidate DTO for internal IPC callers.
type Candidate = api.Candidate

// RankedMatch mirrors the HTTP API match DTO for internal IPC callers.
type RankedMatch = api.RankedMatch

// RunStatus mirrors the HTTP API run-status DTO for internal IPC callers.
type RunStatus = api.RunStatus

// RunSummary mirrors the HTTP API run-summary DTO for internal IPC callers.
type RunSummary = api.RunSummary

// RunResult mirrors the HTTP API run-result DTO for internal IPC callers.
type RunResult = api.RunResult

// QuizPreferences mirrors the HTTP API quiz DTO for internal IPC callers.
type QuizPreferences = api.QuizPreferences

// RecommendedEntry mirrors the HTTP API recommendation DTO for internal IPC callers.
type RecommendedEntry = api.RecommendedEntry

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	IngestActive bool           `json:"ingest_active"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	SocketPath   string         `json:"socket_path"`
	LockPath     string         `json:"lock_path"`
	LastError    string         `json:"last_error"`
	RunStats     map[string]int `json:"run_stats"`
	Current      RunStatus      `json:"current"`
}

// ProgressRequest fetches the live run progress snapshot.
type ProgressRequest struct{}

// ProgressResponse carries the current run status.
type ProgressResponse struct {
	Status RunStatus `json:"status"`
}

// IngestStartRequest submits candidates for an ingestion run.
type IngestStartRequest struct {
	Items     []Candidate `json:"items"`
	MaxRating string      `json:"max_rating"`
}

// IngestStartResponse acknowledges a started run.
type IngestStartResponse struct {
	RunID string `json:"run_id"`
}

// IngestStopRequest asks the active run to stop at the next batch boundary.
type IngestStopRequest struct{}

// IngestStopResponse reports whether a run accepted the stop request.
type IngestStopResponse struct {
	Stopping bool `json:"stopping"`
}

// RunListRequest lists persisted runs, newest first.
type RunListRequest struct {
	Limit int `json:"limit"`
}

// RunListResponse contains run summaries.
type RunListResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunDescribeRequest fetches one run with its per-candidate results.
type RunDescribeRequest struct {
	RunID string `json:"run_id"`
}

// RunDescribeResponse contains one run and its results.
type RunDescribeResponse struct {
	Run     RunSummary  `json:"run"`
	Results []RunResult `json:"results"`
}

// RunsClearRequest removes all persisted run history.
type RunsClearRequest struct{}

// RunsClearResponse reports number of removed runs.
type RunsClearResponse struct {
	Removed int64 `json:"removed"`
}

// RunsPruneRequest keeps the most recent runs and deletes the rest.
type RunsPruneRequest struct {
	Keep int `json:"keep"`
}

// RunsPruneResponse reports number of removed runs.
type RunsPruneResponse struct {
	Removed int64 `json:"removed"`
}

// ResolveRequest matches one candidate against the catalog.
type ResolveRequest struct {
	Title      string `json:"title"`
	Year       string `json:"year"`
	ExternalID string `json:"external_id"`
}

// ResolveResponse contains the ranked disambiguation list.
type ResolveResponse struct {
	Candidate Candidate     `json:"candidate"`
	Matches   []RankedMatch `json:"matches"`
}

// RecommendRequest runs the preference quiz flow.
type RecommendRequest struct {
	Preferences QuizPreferences `json:"preferences"`
}

// RecommendResponse contains resolved, filtered recommendations.
type RecommendResponse struct {
	Entries []RecommendedEntry `json:"entries"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
