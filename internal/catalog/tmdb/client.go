package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelmatch/internal/services"
)

// Genre is a TMDB genre tag attached to details payloads.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Result represents a single TMDB search match or details payload. Movie
// payloads populate Title/ReleaseDate, series payloads Name/FirstAirDate.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	PosterPath   string  `json:"poster_path"`
	Genres       []Genre `json:"genres"`

	// Populated only on details fetches via append_to_response.
	ReleaseDates   *ReleaseDates   `json:"release_dates"`
	ContentRatings *ContentRatings `json:"content_ratings"`
}

// ReleaseDates is the movie certification appendage.
type ReleaseDates struct {
	Results []RegionReleases `json:"results"`
}

// RegionReleases groups a region's release entries.
type RegionReleases struct {
	Region   string         `json:"iso_3166_1"`
	Releases []ReleaseEntry `json:"release_dates"`
}

// ReleaseEntry carries one certification string.
type ReleaseEntry struct {
	Certification string `json:"certification"`
}

// ContentRatings is the series certification appendage.
type ContentRatings struct {
	Results []RegionRating `json:"results"`
}

// RegionRating carries one region's series rating.
type RegionRating struct {
	Region string `json:"iso_3166_1"`
	Rating string `json:"rating"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// FindResponse models the TMDB external-id lookup response.
type FindResponse struct {
	MovieResults []Result `json:"movie_results"`
	TVResults    []Result `json:"tv_results"`
}

// Searcher defines the TMDB operations used by the catalog layer.
type Searcher interface {
	SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error)
	SearchTVWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error)
	SearchMultiWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error)
	FindByExternalID(ctx context.Context, externalID string) (*FindResponse, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*Result, error)
	GetTVDetails(ctx context.Context, showID int64) (*Result, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	language = strings.TrimSpace(language)
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchOptions contains optional parameters for TMDB searches.
type SearchOptions struct {
	Year int `json:"year,omitempty"`
}

// CacheKey returns a stable string representation for caching.
func (o SearchOptions) CacheKey() string {
	return "y=" + strconv.Itoa(o.Year)
}

// SearchMovieWithOptions performs a TMDB movie search with optional filters.
func (c *Client) SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if opts.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(opts.Year))
	}
	var payload Response
	if err := c.getJSON(ctx, "/search/movie", params, "movie search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchTVWithOptions performs a TMDB TV search with optional filters.
func (c *Client) SearchTVWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if opts.Year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(opts.Year))
	}
	var payload Response
	if err := c.getJSON(ctx, "/search/tv", params, "tv search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchMultiWithOptions performs a TMDB multi search across media types.
func (c *Client) SearchMultiWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if opts.Year > 0 {
		params.Set("year", strconv.Itoa(opts.Year))
	}
	var payload Response
	if err := c.getJSON(ctx, "/search/multi", params, "multi search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FindByExternalID resolves an IMDb-style identifier to TMDB records.
func (c *Client) FindByExternalID(ctx context.Context, externalID string) (*FindResponse, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errors.New("external id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	var payload FindResponse
	if err := c.getJSON(ctx, "/find/"+url.PathEscape(externalID), params, "find", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID, including certifications.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "release_dates")
	var payload Result
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", movieID), params, "movie details", &payload); err != nil {
		return nil, err
	}
	payload.MediaType = "movie"
	return &payload, nil
}

// GetTVDetails fetches TV show details by TMDB ID, including content ratings.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Result, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "content_ratings")
	var payload Result
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d", showID), params, "tv details", &payload); err != nil {
		return nil, err
	}
	payload.MediaType = "tv"
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, operation string, payload any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("tmdb %s: execute request (latency=%v): %w", operation, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return &services.StatusError{
			Service:    "tmdb",
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("tmdb %s: decode response: %w", operation, err)
	}
	return nil
}
