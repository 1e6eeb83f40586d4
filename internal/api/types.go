package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CatalogEntry describes a catalog entry in a transport-friendly format.
type CatalogEntry struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        string   `json:"year,omitempty"`
	MediaType   string   `json:"mediaType"`
	Rating      string   `json:"rating,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	VoteAverage float64  `json:"voteAverage,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
}

// Candidate mirrors one proposed title on the wire.
type Candidate struct {
	Title       string `json:"title"`
	Year        string `json:"year,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// RankedMatch pairs a catalog entry with its reconciliation score.
type RankedMatch struct {
	Entry         CatalogEntry `json:"entry"`
	Similarity    float64      `json:"similarity"`
	Tier          string       `json:"tier"`
	LowSimilarity bool         `json:"lowSimilarity,omitempty"`
}

// RunStatus captures the live tracker snapshot for one ingestion run.
type RunStatus struct {
	RunID       string   `json:"runId,omitempty"`
	State       string   `json:"state"`
	Running     bool     `json:"running"`
	Total       int      `json:"total"`
	Processed   int      `json:"processed"`
	Successful  int      `json:"successful"`
	Failed      int      `json:"failed"`
	Percent     float64  `json:"percent"`
	Logs        []string `json:"logs,omitempty"`
	StartedAt   string   `json:"startedAt,omitempty"`
	LastUpdated string   `json:"lastUpdated,omitempty"`
}

// WorkflowStatus summarizes run-manager execution state.
type WorkflowStatus struct {
	Running   bool           `json:"running"`
	LastError string         `json:"lastError,omitempty"`
	Current   RunStatus      `json:"current"`
	RunStats  map[string]int `json:"runStats"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	SocketPath   string         `json:"socketPath,omitempty"`
	LockFilePath string         `json:"lockFilePath,omitempty"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// RunSummary describes one persisted run.
type RunSummary struct {
	RunID      string  `json:"runId"`
	State      string  `json:"state"`
	Total      int     `json:"total"`
	Processed  int     `json:"processed"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	Percent    float64 `json:"percent"`
	StartedAt  string  `json:"startedAt,omitempty"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

// RunResult describes one candidate's disposition within a persisted run.
type RunResult struct {
	Position       int     `json:"position"`
	CandidateTitle string  `json:"candidateTitle"`
	CandidateYear  string  `json:"candidateYear,omitempty"`
	Outcome        string  `json:"outcome"`
	Detail         string  `json:"detail,omitempty"`
	CatalogID      int64   `json:"catalogId,omitempty"`
	CatalogTitle   string  `json:"catalogTitle,omitempty"`
	MediaType      string  `json:"mediaType,omitempty"`
	Rating         string  `json:"rating,omitempty"`
	Similarity     float64 `json:"similarity,omitempty"`
	Tier           string  `json:"tier,omitempty"`
}

// RecommendedEntry is one resolved, rating-filtered recommendation.
type RecommendedEntry struct {
	Entry          CatalogEntry `json:"entry"`
	Similarity     float64      `json:"similarity"`
	Tier           string       `json:"tier"`
	Reason         string       `json:"reason,omitempty"`
	SuggestedTitle string       `json:"suggestedTitle,omitempty"`
}

// QuizPreferences carries one quiz submission on the wire.
type QuizPreferences struct {
	MediaType string   `json:"mediaType,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Moods     []string `json:"moods,omitempty"`
	Era       string   `json:"era,omitempty"`
	MaxRating string   `json:"maxRating,omitempty"`
	Count     int      `json:"count,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// ResolveResponse wraps the ranked disambiguation list for one candidate.
type ResolveResponse struct {
	Candidate Candidate     `json:"candidate"`
	Matches   []RankedMatch `json:"matches"`
}

// RecommendResponse wraps resolved recommendations for API responses.
type RecommendResponse struct {
	Entries []RecommendedEntry `json:"entries"`
}

// IngestRequest describes an ingestion run submission.
type IngestRequest struct {
	Items     []Candidate `json:"items"`
	MaxRating string      `json:"maxRating,omitempty"`
}

// IngestStartResponse acknowledges a started run.
type IngestStartResponse struct {
	RunID string `json:"runId"`
}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// RunListResponse wraps a collection of run summaries.
type RunListResponse struct {
	Runs []RunSummary `json:"runs"`
}

// RunDetailResponse wraps one run with its per-candidate results.
type RunDetailResponse struct {
	Run     RunSummary  `json:"run"`
	Results []RunResult `json:"results"`
}

// RunStatsResponse provides a normalized run-history stats payload.
type RunStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// LogTailResponse carries a chunk of daemon log lines plus the byte offset to
// resume from on the next poll.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
