package catalog

// MediaType distinguishes films from episodic series.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Entry is the canonical catalog record. Downstream code only ever sees this
// shape; field-naming drift in external payloads stops at the normalization
// boundary in this package.
type Entry struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Year        string    `json:"year,omitempty"`
	MediaType   MediaType `json:"media_type"`
	Rating      string    `json:"rating,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	VoteAverage float64   `json:"vote_average,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
}

// SearchResult is the slim row returned by title searches. Full entries come
// from a Details fetch.
type SearchResult struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Year      string    `json:"year,omitempty"`
	MediaType MediaType `json:"media_type"`
}

// SearchOptions narrows a title search.
type SearchOptions struct {
	Year      int
	MediaType MediaType
}
