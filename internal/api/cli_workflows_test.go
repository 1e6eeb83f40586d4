package api

import (
	"context"
	"testing"

	"reelmatch/internal/catalog"
	"reelmatch/internal/reconcile"
)

func TestAssessResolveExactMatch(t *testing.T) {
	matches := FromMatches([]reconcile.Match{{
		Entry:      catalog.Entry{ID: 949, Title: "Heat", Year: "1995", MediaType: catalog.MediaTypeMovie},
		Similarity: 1,
		Tier:       reconcile.TierExact,
	}})

	assessment := AssessResolve(matches)
	if assessment.Outcome != "match" {
		t.Fatalf("Outcome = %q, want match", assessment.Outcome)
	}
	if assessment.Best == nil || assessment.Best.Entry.ID != 949 {
		t.Fatalf("unexpected best match: %+v", assessment.Best)
	}
	if assessment.Alternatives != 0 {
		t.Fatalf("Alternatives = %d, want 0", assessment.Alternatives)
	}
	if assessment.OutcomeMessage == "" {
		t.Fatal("expected an outcome message")
	}
}

func TestAssessResolveReview(t *testing.T) {
	matches := FromMatches([]reconcile.Match{
		{
			Entry:      catalog.Entry{ID: 1, Title: "Inception", Year: "2010", MediaType: catalog.MediaTypeMovie},
			Similarity: 0.889,
			Tier:       reconcile.TierStrong,
		},
		{
			Entry:      catalog.Entry{ID: 2, Title: "Interception", MediaType: catalog.MediaTypeMovie},
			Similarity: 0.62,
			Tier:       reconcile.TierWeak,
		},
	})

	assessment := AssessResolve(matches)
	if assessment.Outcome != "review" {
		t.Fatalf("Outcome = %q, want review", assessment.Outcome)
	}
	if assessment.Best == nil || assessment.Best.Entry.Title != "Inception" {
		t.Fatalf("unexpected best match: %+v", assessment.Best)
	}
	if assessment.Alternatives != 1 {
		t.Fatalf("Alternatives = %d, want 1", assessment.Alternatives)
	}
}

func TestAssessResolveNoMatches(t *testing.T) {
	assessment := AssessResolve(nil)
	if assessment.Outcome != "none" {
		t.Fatalf("Outcome = %q, want none", assessment.Outcome)
	}
	if assessment.Best != nil {
		t.Fatalf("expected no best match, got %+v", assessment.Best)
	}
}

func TestFromRecommendedMatches(t *testing.T) {
	matches := []RecommendedMatch{{
		Candidate: reconcile.Candidate{Title: "Heat", Reason: "crime epic"},
		Match: reconcile.Match{
			Entry:      catalog.Entry{ID: 949, Title: "Heat", Year: "1995", MediaType: catalog.MediaTypeMovie, Rating: "R"},
			Similarity: 1,
			Tier:       reconcile.TierExact,
		},
	}}

	dtos := FromRecommendedMatches(matches)
	if len(dtos) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(dtos))
	}
	if dtos[0].Entry.ID != 949 || dtos[0].Reason != "crime epic" {
		t.Fatalf("unexpected entry: %+v", dtos[0])
	}
	if dtos[0].SuggestedTitle != "Heat" || dtos[0].Tier != "exact" {
		t.Fatalf("unexpected suggestion fields: %+v", dtos[0])
	}
}

func TestResolveCandidateRequiresInput(t *testing.T) {
	if _, err := ResolveCandidate(context.Background(), ResolveRequest{}); err == nil {
		t.Fatal("expected error for missing configuration")
	}
}
