package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"reelmatch/internal/catalog"
	"reelmatch/internal/logging"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/services"
)

// fakeCatalog scripts catalog responses and counts calls per operation.
type fakeCatalog struct {
	entriesByExternalID map[string]catalog.Entry
	searchResults       []catalog.SearchResult
	details             map[int64]catalog.Entry

	lookupErr  error
	searchErr  error
	detailsErr error

	lookupCalls  int
	searchCalls  int
	detailsCalls int
}

func (f *fakeCatalog) SearchByTitle(ctx context.Context, query string, opts catalog.SearchOptions) ([]catalog.SearchResult, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeCatalog) LookupExternalID(ctx context.Context, externalID string) (catalog.Entry, error) {
	f.lookupCalls++
	if f.lookupErr != nil {
		return catalog.Entry{}, f.lookupErr
	}
	entry, ok := f.entriesByExternalID[externalID]
	if !ok {
		return catalog.Entry{}, services.Wrap(services.ErrNotFound, "catalog", "lookup", externalID, nil)
	}
	return entry, nil
}

func (f *fakeCatalog) Details(ctx context.Context, id int64, mediaType catalog.MediaType) (catalog.Entry, error) {
	f.detailsCalls++
	if f.detailsErr != nil {
		return catalog.Entry{}, f.detailsErr
	}
	entry, ok := f.details[id]
	if !ok {
		return catalog.Entry{}, services.Wrap(services.ErrNotFound, "catalog", "details", "", nil)
	}
	return entry, nil
}

func newResolver(t *testing.T, fake *fakeCatalog, opts reconcile.Options) *reconcile.Resolver {
	t.Helper()
	resolver, err := reconcile.NewResolver(fake, logging.NewNop(), opts)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func TestResolveIdentifierExactSkipsSearch(t *testing.T) {
	fake := &fakeCatalog{
		entriesByExternalID: map[string]catalog.Entry{
			"tt1375666": {ID: 27205, Title: "Inception", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "Inception",
		ExternalID: "tt1375666",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected single auto-selected match, got %d", len(matches))
	}
	if matches[0].Tier != reconcile.TierExact {
		t.Errorf("tier = %s, want exact", matches[0].Tier)
	}
	if matches[0].Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", matches[0].Similarity)
	}
	if fake.searchCalls != 0 {
		t.Errorf("title search ran %d times despite exact identifier match", fake.searchCalls)
	}
}

func TestResolveURLIdentifierExtracted(t *testing.T) {
	fake := &fakeCatalog{
		entriesByExternalID: map[string]catalog.Entry{
			"tt0137523": {ID: 550, Title: "Fight Club", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:       "Fight Club",
		ExternalURL: "https://www.imdb.com/title/tt0137523/",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if matches[0].Entry.ID != 550 {
		t.Errorf("entry id = %d, want 550", matches[0].Entry.ID)
	}
	if fake.lookupCalls != 1 {
		t.Errorf("lookup calls = %d, want 1", fake.lookupCalls)
	}
}

func TestResolveStrongIdentifierMatchSkipsSearch(t *testing.T) {
	// One character edit on a nine-letter title lands in the strong band
	// below auto-accept.
	fake := &fakeCatalog{
		entriesByExternalID: map[string]catalog.Entry{
			"tt1375666": {ID: 27205, Title: "Inception", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "Incepton",
		ExternalID: "tt1375666",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Tier != reconcile.TierStrong {
		t.Errorf("tier = %s, want strong", matches[0].Tier)
	}
	if fake.searchCalls != 0 {
		t.Errorf("search ran despite strong identifier match")
	}
}

func TestResolveFallsBackToSearch(t *testing.T) {
	fake := &fakeCatalog{
		searchResults: []catalog.SearchResult{
			{ID: 603, Title: "The Matrix", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			603: {ID: 603, Title: "The Matrix", Year: "1999", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "The Matrix",
		ExternalID: "tt9999999",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fake.lookupCalls != 1 {
		t.Errorf("lookup calls = %d, want 1", fake.lookupCalls)
	}
	if fake.searchCalls != 1 {
		t.Errorf("search calls = %d, want 1", fake.searchCalls)
	}
	if len(matches) != 1 || matches[0].Tier != reconcile.TierExact {
		t.Fatalf("expected exact search match, got %+v", matches)
	}
}

func TestResolveSearchExactStopsDetailFetches(t *testing.T) {
	fake := &fakeCatalog{
		searchResults: []catalog.SearchResult{
			{ID: 1, Title: "Alien", MediaType: catalog.MediaTypeMovie},
			{ID: 2, Title: "Alien Resurrection", MediaType: catalog.MediaTypeMovie},
			{ID: 3, Title: "Aliens", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			1: {ID: 1, Title: "Alien", MediaType: catalog.MediaTypeMovie},
			2: {ID: 2, Title: "Alien Resurrection", MediaType: catalog.MediaTypeMovie},
			3: {ID: 3, Title: "Aliens", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Alien"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected single auto-selected match, got %d", len(matches))
	}
	if fake.detailsCalls != 1 {
		t.Errorf("details calls = %d, want 1 (exact hit stops early)", fake.detailsCalls)
	}
}

func TestResolveRanksBySimilarityDescending(t *testing.T) {
	fake := &fakeCatalog{
		searchResults: []catalog.SearchResult{
			{ID: 1, Title: "Blade Runner 2049", MediaType: catalog.MediaTypeMovie},
			{ID: 2, Title: "Blade Runer", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			1: {ID: 1, Title: "Blade Runner 2049", MediaType: catalog.MediaTypeMovie},
			2: {ID: 2, Title: "Blade Runer", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Blade Runner"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Entry.ID != 2 {
		t.Errorf("best match id = %d, want 2 (one edit beats containment)", matches[0].Entry.ID)
	}
	if matches[0].Similarity <= matches[1].Similarity {
		t.Errorf("ranking not descending: %v then %v", matches[0].Similarity, matches[1].Similarity)
	}
}

func TestResolveSearchLimitCapsDetailFetches(t *testing.T) {
	results := make([]catalog.SearchResult, 8)
	details := make(map[int64]catalog.Entry, 8)
	for i := range results {
		id := int64(i + 1)
		results[i] = catalog.SearchResult{ID: id, Title: "Solaris Chronicle", MediaType: catalog.MediaTypeMovie}
		details[id] = catalog.Entry{ID: id, Title: "Solaris Chronicle", MediaType: catalog.MediaTypeMovie}
	}
	fake := &fakeCatalog{searchResults: results, details: details}
	resolver := newResolver(t, fake, reconcile.Options{SearchResultLimit: 3})

	// "Solaris" against "Solaris Chronicle" scores containment, never exact,
	// so every surviving row gets a detail fetch.
	_, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Solaris"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fake.detailsCalls != 3 {
		t.Errorf("details calls = %d, want 3", fake.detailsCalls)
	}
}

func TestResolveNoMatchAfterBothStrategies(t *testing.T) {
	fake := &fakeCatalog{}
	resolver := newResolver(t, fake, reconcile.Options{})

	_, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "Completely Unknown Film",
		ExternalID: "tt0000001",
	})
	if !errors.Is(err, reconcile.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if services.Retryable(err) {
		t.Error("no-match must classify as permanent")
	}
	if fake.lookupCalls != 1 || fake.searchCalls != 1 {
		t.Errorf("expected both strategies to run, lookup=%d search=%d", fake.lookupCalls, fake.searchCalls)
	}
}

func TestResolveTransientLookupErrorPropagates(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "catalog", "lookup", "", errors.New("bad gateway"))
	fake := &fakeCatalog{lookupErr: transient}
	resolver := newResolver(t, fake, reconcile.Options{})

	_, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "Dune",
		ExternalID: "tt1160419",
	})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if fake.searchCalls != 0 {
		t.Error("search must not run after a transient lookup failure")
	}
}

func TestResolveTransientSearchErrorPropagates(t *testing.T) {
	transient := services.Wrap(services.ErrTransient, "catalog", "search", "", errors.New("timeout"))
	fake := &fakeCatalog{searchErr: transient}
	resolver := newResolver(t, fake, reconcile.Options{})

	_, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Dune"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestResolveSkipsUnfetchableSearchRows(t *testing.T) {
	fake := &fakeCatalog{
		searchResults: []catalog.SearchResult{
			{ID: 1, Title: "Ghost Record", MediaType: catalog.MediaTypeMovie},
			{ID: 2, Title: "Arrival", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			// ID 1 has no detail record; its fetch 404s and the row is skipped.
			2: {ID: 2, Title: "Arrival", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Arrival"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(matches) != 1 || matches[0].Entry.ID != 2 {
		t.Fatalf("expected the fetchable row only, got %+v", matches)
	}
}

func TestResolveWeakIdentifierMatchStillSearches(t *testing.T) {
	fake := &fakeCatalog{
		entriesByExternalID: map[string]catalog.Entry{
			"tt0111161": {ID: 278, Title: "The Shawshank Redemption", MediaType: catalog.MediaTypeMovie},
		},
		searchResults: []catalog.SearchResult{
			{ID: 680, Title: "Pulp Fiction", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			680: {ID: 680, Title: "Pulp Fiction", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{
		Title:      "Pulp Fiction",
		ExternalID: "tt0111161",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fake.searchCalls != 1 {
		t.Errorf("weak identifier match must still fall back to search, calls=%d", fake.searchCalls)
	}
	// Exact search hit auto-selects over the weak identifier row.
	if len(matches) != 1 || matches[0].Entry.ID != 680 {
		t.Fatalf("expected exact search match to win, got %+v", matches)
	}
}

func TestResolveSuspiciousTitleNeverAutoAccepts(t *testing.T) {
	fake := &fakeCatalog{
		searchResults: []catalog.SearchResult{
			{ID: 1, Title: "Heat", MediaType: catalog.MediaTypeMovie},
		},
		details: map[int64]catalog.Entry{
			1: {ID: 1, Title: "Heat", MediaType: catalog.MediaTypeMovie},
		},
	}
	resolver := newResolver(t, fake, reconcile.Options{})

	// The delimiter-bearing blob would score containment 0.7 against "Heat";
	// the suspicious cap pulls it down to 0.5.
	matches, err := resolver.Resolve(context.Background(), reconcile.Candidate{Title: "Heat, Ronin, Collateral"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if matches[0].Tier == reconcile.TierExact {
		t.Error("delimiter-bearing title must not auto-accept")
	}
	if !matches[0].LowSimilarity {
		t.Error("capped score must flag the match as a long shot")
	}
	if matches[0].Similarity != 0.5 {
		t.Errorf("similarity = %v, want capped 0.5", matches[0].Similarity)
	}
}

func TestNewResolverRequiresCatalog(t *testing.T) {
	if _, err := reconcile.NewResolver(nil, logging.NewNop(), reconcile.Options{}); err == nil {
		t.Fatal("expected error for nil catalog service")
	}
}
