package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"reelmatch/internal/catalog/tmdb"
	"reelmatch/internal/logging"
	"reelmatch/internal/services"
)

// Service is the catalog read surface consumed by reconciliation.
type Service interface {
	// SearchByTitle returns slim rows for the query, optionally scoped by
	// year and media type.
	SearchByTitle(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
	// LookupExternalID resolves an IMDb-style identifier to a full entry.
	LookupExternalID(ctx context.Context, externalID string) (Entry, error)
	// Details fetches the full entry for a catalog id.
	Details(ctx context.Context, id int64, mediaType MediaType) (Entry, error)
}

const (
	defaultCacheTTL       = 10 * time.Minute
	defaultRequestsPerSec = 4
)

// Client implements Service over the TMDB API with token-bucket rate
// limiting and a short-TTL read cache. Cache hits bypass the limiter.
type Client struct {
	api     tmdb.Searcher
	limiter *rate.Limiter
	logger  *slog.Logger

	region       string
	imageBaseURL string

	mu          sync.Mutex
	searchCache map[string]searchCacheEntry
	entryCache  map[string]entryCacheEntry
	cacheTTL    time.Duration
}

var _ Service = (*Client)(nil)

type searchCacheEntry struct {
	results []SearchResult
	expires time.Time
}

type entryCacheEntry struct {
	entry   Entry
	expires time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit overrides the default requests-per-second budget.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithCacheTTL overrides how long cached reads stay fresh.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithRegion overrides the certification region (defaults to US).
func WithRegion(region string) ClientOption {
	return func(c *Client) {
		if region = strings.TrimSpace(region); region != "" {
			c.region = region
		}
	}
}

// WithImageBaseURL overrides the poster image base URL.
func WithImageBaseURL(base string) ClientOption {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.imageBaseURL = base
		}
	}
}

// NewClient wraps a TMDB searcher in the canonical catalog surface.
func NewClient(api tmdb.Searcher, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	if api == nil {
		return nil, errors.New("catalog: tmdb searcher required")
	}
	client := &Client{
		api:          api,
		limiter:      rate.NewLimiter(rate.Limit(defaultRequestsPerSec), 1),
		logger:       logging.NewComponentLogger(logger, "catalog"),
		region:       defaultRegion,
		imageBaseURL: defaultImageBaseURL,
		searchCache:  make(map[string]searchCacheEntry),
		entryCache:   make(map[string]entryCacheEntry),
		cacheTTL:     defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchByTitle implements Service.
func (c *Client) SearchByTitle(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "search", "query required", nil)
	}

	key := fmt.Sprintf("%s|%s|y=%d", opts.MediaType, strings.ToLower(query), opts.Year)
	if results, ok := c.cachedSearch(key); ok {
		return results, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchOpts := tmdb.SearchOptions{Year: opts.Year}
	var (
		resp *tmdb.Response
		err  error
	)
	switch opts.MediaType {
	case MediaTypeMovie:
		resp, err = c.api.SearchMovieWithOptions(ctx, query, searchOpts)
	case MediaTypeSeries:
		resp, err = c.api.SearchTVWithOptions(ctx, query, searchOpts)
	default:
		resp, err = c.api.SearchMultiWithOptions(ctx, query, searchOpts)
	}
	if err != nil {
		return nil, classify(err, "search")
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, res := range resp.Results {
		// Multi search interleaves people with titles; keep titles only.
		if res.MediaType == "person" {
			continue
		}
		results = append(results, searchResultFromResult(res))
	}

	c.logger.Debug("catalog search",
		logging.String("query", query),
		logging.Int("results", len(results)))
	c.storeSearch(key, results)
	return results, nil
}

// LookupExternalID implements Service. Movie records win when an identifier
// maps to both a film and a series.
func (c *Client) LookupExternalID(ctx context.Context, externalID string) (Entry, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "catalog", "lookup", "external id required", nil)
	}

	key := "find|" + strings.ToLower(externalID)
	if entry, ok := c.cachedEntry(key); ok {
		return entry, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Entry{}, err
	}

	resp, err := c.api.FindByExternalID(ctx, externalID)
	if err != nil {
		return Entry{}, classify(err, "lookup")
	}

	var found tmdb.Result
	switch {
	case len(resp.MovieResults) > 0:
		found = resp.MovieResults[0]
		found.MediaType = "movie"
	case len(resp.TVResults) > 0:
		found = resp.TVResults[0]
		found.MediaType = "tv"
	default:
		return Entry{}, services.Wrap(services.ErrNotFound, "catalog", "lookup", externalID, nil)
	}

	// Find rows are slim; fetch full details so rating and genres are
	// populated before the entry leaves the normalization boundary.
	entry, err := c.Details(ctx, found.ID, mediaTypeOf(found))
	if err != nil {
		return Entry{}, err
	}
	c.storeEntry(key, entry)
	return entry, nil
}

// Details implements Service.
func (c *Client) Details(ctx context.Context, id int64, mediaType MediaType) (Entry, error) {
	if id <= 0 {
		return Entry{}, services.Wrap(services.ErrValidation, "catalog", "details", "id must be positive", nil)
	}

	key := fmt.Sprintf("details|%s|%d", mediaType, id)
	if entry, ok := c.cachedEntry(key); ok {
		return entry, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Entry{}, err
	}

	var (
		res *tmdb.Result
		err error
	)
	if mediaType == MediaTypeSeries {
		res, err = c.api.GetTVDetails(ctx, id)
	} else {
		res, err = c.api.GetMovieDetails(ctx, id)
	}
	if err != nil {
		return Entry{}, classify(err, "details")
	}

	entry := entryFromResult(*res, c.imageBaseURL, c.region)
	c.storeEntry(key, entry)
	return entry, nil
}

func (c *Client) cachedSearch(key string) ([]SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.searchCache[key]
	if !ok || time.Now().After(cached.expires) {
		return nil, false
	}
	results := make([]SearchResult, len(cached.results))
	copy(results, cached.results)
	return results, true
}

func (c *Client) storeSearch(key string, results []SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]SearchResult, len(results))
	copy(stored, results)
	c.searchCache[key] = searchCacheEntry{results: stored, expires: time.Now().Add(c.cacheTTL)}
}

func (c *Client) cachedEntry(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entryCache[key]
	if !ok || time.Now().After(cached.expires) {
		return Entry{}, false
	}
	return cached.entry, true
}

func (c *Client) storeEntry(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryCache[key] = entryCacheEntry{entry: entry, expires: time.Now().Add(c.cacheTTL)}
}

// classify tags raw transport failures with retry markers: 404s become
// not-found, everything else stays transient.
func classify(err error, operation string) error {
	var statusErr *services.StatusError
	if errors.As(err, &statusErr) && statusErr.NotFound() {
		return services.Wrap(services.ErrNotFound, "catalog", operation, "", err)
	}
	return services.Wrap(services.ErrTransient, "catalog", operation, "", err)
}
