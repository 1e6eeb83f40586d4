package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"reelmatch/internal/catalog"
	"reelmatch/internal/logging"
	"reelmatch/internal/services"
	"reelmatch/internal/textutil"
)

// ErrNoMatch marks reconciliation that exhausted identifier lookups and
// title search without producing any candidate. It carries the not-found
// marker so retry classification treats it as permanent.
var ErrNoMatch = fmt.Errorf("%w: no match", services.ErrNotFound)

const (
	// DefaultAutoAcceptThreshold auto-selects a single exact match and
	// short-circuits remaining lookups.
	DefaultAutoAcceptThreshold = 0.95
	// DefaultStrongMatchThreshold separates ranked candidates from
	// low-similarity long shots.
	DefaultStrongMatchThreshold = 0.8
	// DefaultSearchResultLimit caps how many title-search rows get a detail
	// fetch.
	DefaultSearchResultLimit = 5
)

// Options tunes resolution thresholds. Zero values take the defaults.
type Options struct {
	AutoAcceptThreshold  float64
	StrongMatchThreshold float64
	SearchResultLimit    int
}

// Resolver reconciles candidates against the catalog.
type Resolver struct {
	catalog     catalog.Service
	logger      *slog.Logger
	autoAccept  float64
	strongMatch float64
	searchLimit int
}

// NewResolver constructs a Resolver over the supplied catalog surface.
func NewResolver(service catalog.Service, logger *slog.Logger, opts Options) (*Resolver, error) {
	if service == nil {
		return nil, errors.New("reconcile: catalog service required")
	}
	resolver := &Resolver{
		catalog:     service,
		logger:      logging.NewComponentLogger(logger, "reconcile"),
		autoAccept:  opts.AutoAcceptThreshold,
		strongMatch: opts.StrongMatchThreshold,
		searchLimit: opts.SearchResultLimit,
	}
	if resolver.autoAccept <= 0 || resolver.autoAccept > 1 {
		resolver.autoAccept = DefaultAutoAcceptThreshold
	}
	if resolver.strongMatch <= 0 || resolver.strongMatch > resolver.autoAccept {
		resolver.strongMatch = DefaultStrongMatchThreshold
	}
	if resolver.searchLimit <= 0 {
		resolver.searchLimit = DefaultSearchResultLimit
	}
	return resolver, nil
}

// Resolve reconciles one candidate and returns matches ranked by descending
// similarity; ties keep discovery order with identifier matches ahead of
// search matches. Transient catalog failures propagate to the caller, whose
// retry budget covers the whole attempt. ErrNoMatch is returned only after
// both strategies exhaust.
func (r *Resolver) Resolve(ctx context.Context, cand Candidate) ([]Match, error) {
	matches := make([]Match, 0, r.searchLimit+2)

	ids := cand.ExternalIDs()
	for _, id := range ids {
		entry, err := r.catalog.LookupExternalID(ctx, id)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				r.logger.Debug("identifier lookup missed",
					logging.String("external_id", id),
					logging.String("title", cand.Title))
				continue
			}
			return nil, err
		}

		similarity := textutil.TitleSimilarity(cand.Title, entry.Title)
		match := r.matchFor(entry, similarity)
		r.logDecision("identifier lookup scored", cand, entry.Title, match)
		if match.Tier == TierExact {
			return []Match{match}, nil
		}
		matches = append(matches, match)
	}

	// Fall back to title search unless an identifier already produced a
	// strong match.
	if !hasStrongOrBetter(matches) {
		searched, exact, err := r.searchMatches(ctx, cand)
		if err != nil {
			return nil, err
		}
		if exact != nil {
			return []Match{*exact}, nil
		}
		matches = append(matches, searched...)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoMatch, cand.Title)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// searchMatches runs the title-search strategy: top rows up to the search
// limit, a detail fetch per row, one Match per scored entry. An exact hit
// stops the detail fetches early.
func (r *Resolver) searchMatches(ctx context.Context, cand Candidate) ([]Match, *Match, error) {
	results, err := r.catalog.SearchByTitle(ctx, cand.Title, catalog.SearchOptions{Year: cand.YearNumber()})
	if err != nil {
		return nil, nil, err
	}
	if len(results) > r.searchLimit {
		results = results[:r.searchLimit]
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		entry, err := r.catalog.Details(ctx, result.ID, result.MediaType)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}

		similarity := textutil.TitleSimilarity(cand.Title, entry.Title)
		match := r.matchFor(entry, similarity)
		r.logDecision("search result scored", cand, entry.Title, match)
		if match.Tier == TierExact {
			return nil, &match, nil
		}
		matches = append(matches, match)
	}
	return matches, nil, nil
}

func hasStrongOrBetter(matches []Match) bool {
	for _, match := range matches {
		if match.Tier == TierExact || match.Tier == TierStrong {
			return true
		}
	}
	return false
}

func (r *Resolver) logDecision(msg string, cand Candidate, entryTitle string, match Match) {
	decision := "rank"
	if match.Tier == TierExact {
		decision = "auto_select"
	}
	r.logger.Debug(msg,
		logging.String("candidate", cand.Title),
		logging.String("entry", entryTitle),
		logging.Int64("catalog_id", match.Entry.ID),
		logging.Float64("similarity", match.Similarity),
		logging.String("tier", string(match.Tier)),
		logging.String("decision_result", decision),
	)
}
