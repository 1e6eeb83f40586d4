package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reelmatch/internal/catalog"
	"reelmatch/internal/catalog/tmdb"
	"reelmatch/internal/config"
	"reelmatch/internal/logging"
	"reelmatch/internal/ratings"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/suggest"
)

// NewResolverFromConfig assembles the TMDB-backed resolver with the
// configured matcher-flow thresholds.
func NewResolverFromConfig(cfg *config.Config, logger *slog.Logger) (*reconcile.Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("create TMDB client: %w", err)
	}
	service, err := catalog.NewClient(client, logger)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	return reconcile.NewResolver(service, logger, reconcile.Options{
		AutoAcceptThreshold:  cfg.Ingest.AutoAcceptThreshold,
		StrongMatchThreshold: cfg.Ingest.StrongMatchThreshold,
		SearchResultLimit:    cfg.Ingest.SearchResultLimit,
	})
}

// newQuizResolver builds the recommendation-flow resolver: the strong-match
// threshold doubles as the auto-accept bar so the first strong result wins
// without disambiguation.
func newQuizResolver(cfg *config.Config, logger *slog.Logger) (*reconcile.Resolver, error) {
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("create TMDB client: %w", err)
	}
	service, err := catalog.NewClient(client, logger)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	return reconcile.NewResolver(service, logger, reconcile.Options{
		AutoAcceptThreshold:  cfg.Ingest.StrongMatchThreshold,
		StrongMatchThreshold: cfg.Ingest.StrongMatchThreshold,
		SearchResultLimit:    cfg.Ingest.SearchResultLimit,
	})
}

type ResolveRequest struct {
	Config     *config.Config
	Logger     *slog.Logger
	Title      string
	Year       string
	ExternalID string
}

type ResolveResult struct {
	Candidate reconcile.Candidate
	Matches   []reconcile.Match
}

// ResolveCandidate runs one candidate through the full reconciliation flow.
// Exhausting both strategies is not an error here: the result carries an
// empty match list for AssessResolve to classify.
func ResolveCandidate(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	cfg := req.Config
	if cfg == nil {
		return ResolveResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	title := strings.TrimSpace(req.Title)
	externalID := strings.TrimSpace(req.ExternalID)
	if title == "" && externalID == "" {
		return ResolveResult{}, fmt.Errorf("a title or external id is required")
	}

	resolver, err := NewResolverFromConfig(cfg, logger)
	if err != nil {
		return ResolveResult{}, err
	}

	cand := reconcile.Candidate{
		Title:      title,
		Year:       strings.TrimSpace(req.Year),
		ExternalID: externalID,
	}
	matches, err := resolver.Resolve(ctx, cand)
	if err != nil {
		if errors.Is(err, reconcile.ErrNoMatch) {
			return ResolveResult{Candidate: cand}, nil
		}
		return ResolveResult{}, fmt.Errorf("resolve %q: %w", cand.Title, err)
	}
	return ResolveResult{Candidate: cand, Matches: matches}, nil
}

type ResolveAssessment struct {
	Outcome        string
	OutcomeMessage string
	Best           *RankedMatch
	Alternatives   int
}

// AssessResolve derives CLI-facing resolution outcomes from a ranked match
// list. It operates on wire DTOs so IPC responses and direct resolution
// results classify identically.
func AssessResolve(matches []RankedMatch) ResolveAssessment {
	if len(matches) == 0 {
		return ResolveAssessment{
			Outcome:        "none",
			OutcomeMessage: "No catalog entry matched. Try adding a year or an explicit id.",
		}
	}

	best := matches[0]
	assessment := ResolveAssessment{
		Best:         &best,
		Alternatives: len(matches) - 1,
	}
	if best.Tier == string(reconcile.TierExact) {
		assessment.Outcome = "match"
		assessment.OutcomeMessage = fmt.Sprintf("Matched %s (%s) with similarity %.2f.",
			best.Entry.Title, orUnknown(best.Entry.Year), best.Similarity)
		return assessment
	}
	assessment.Outcome = "review"
	assessment.OutcomeMessage = fmt.Sprintf("%d candidates need review; best is %s (%s) at similarity %.2f.",
		len(matches), best.Entry.Title, orUnknown(best.Entry.Year), best.Similarity)
	return assessment
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "unknown year"
	}
	return value
}

type RecommendRequest struct {
	Config      *config.Config
	Logger      *slog.Logger
	Preferences suggest.Preferences
}

// RecommendedMatch couples a model suggestion with its resolved entry.
type RecommendedMatch struct {
	Candidate reconcile.Candidate
	Match     reconcile.Match
}

type RecommendResult struct {
	Suggestions []reconcile.Candidate
	Matches     []RecommendedMatch
}

// Recommend runs the quiz flow end to end: one suggestion call, each
// suggestion resolved with the quiz-mode threshold, rating-filtered and
// deduplicated by catalog id. Suggestion order is preserved; unresolvable
// suggestions are dropped, not fatal.
func Recommend(ctx context.Context, req RecommendRequest) (RecommendResult, error) {
	cfg := req.Config
	if cfg == nil {
		return RecommendResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	llm := cfg.GetLLM()
	if llm.APIKey == "" {
		return RecommendResult{}, fmt.Errorf("llm api_key is required for recommendations")
	}
	client := suggest.NewClient(suggest.Config{
		APIKey:         llm.APIKey,
		BaseURL:        llm.BaseURL,
		Model:          llm.Model,
		Referer:        llm.Referer,
		Title:          llm.Title,
		TimeoutSeconds: llm.TimeoutSeconds,
	})

	suggestions, err := client.Suggest(ctx, req.Preferences)
	if err != nil {
		return RecommendResult{}, fmt.Errorf("fetch suggestions: %w", err)
	}
	result := RecommendResult{Suggestions: suggestions}
	if len(suggestions) == 0 {
		return result, nil
	}

	resolver, err := newQuizResolver(cfg, logger)
	if err != nil {
		return RecommendResult{}, err
	}

	ceiling := strings.TrimSpace(req.Preferences.MaxRating)
	if ceiling == "" {
		ceiling = cfg.Filter.DefaultMaxRating
	}
	allowed := ratings.SetFor(ceiling)

	seen := make(map[int64]struct{}, len(suggestions))
	for _, cand := range suggestions {
		matches, err := resolver.Resolve(ctx, cand)
		if err != nil {
			if errors.Is(err, reconcile.ErrNoMatch) {
				logger.Debug("suggestion had no catalog match",
					logging.String("title", cand.Title))
			} else {
				logger.Warn("suggestion resolution failed",
					logging.String("title", cand.Title),
					logging.Error(err))
			}
			continue
		}
		best := matches[0]
		if !allowed.Allows(best.Entry.Rating) {
			logger.Debug("suggestion filtered by rating ceiling",
				logging.String("title", best.Entry.Title),
				logging.String("rating", best.Entry.Rating),
				logging.String("ceiling", ceiling))
			continue
		}
		if _, dup := seen[best.Entry.ID]; dup {
			continue
		}
		seen[best.Entry.ID] = struct{}{}
		result.Matches = append(result.Matches, RecommendedMatch{Candidate: cand, Match: best})
	}
	return result, nil
}

// FromRecommendedMatches converts resolved recommendations into API DTOs.
func FromRecommendedMatches(matches []RecommendedMatch) []RecommendedEntry {
	if len(matches) == 0 {
		return nil
	}
	out := make([]RecommendedEntry, 0, len(matches))
	for _, rec := range matches {
		out = append(out, RecommendedEntry{
			Entry:          FromCatalogEntry(rec.Match.Entry),
			Similarity:     rec.Match.Similarity,
			Tier:           string(rec.Match.Tier),
			Reason:         rec.Candidate.Reason,
			SuggestedTitle: rec.Candidate.Title,
		})
	}
	return out
}
