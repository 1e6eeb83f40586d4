package reconcile_test

import (
	"testing"

	"reelmatch/internal/reconcile"
)

func TestExternalIDsDirectAndURL(t *testing.T) {
	cand := reconcile.Candidate{
		Title:       "Inception",
		ExternalID:  "tt1375666",
		ExternalURL: "https://www.imdb.com/title/tt0137523/",
	}
	ids := cand.ExternalIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	if ids[0] != "tt1375666" || ids[1] != "tt0137523" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestExternalIDsDeduplicates(t *testing.T) {
	cand := reconcile.Candidate{
		ExternalID:  "tt1375666",
		ExternalURL: "https://www.imdb.com/title/tt1375666/",
	}
	ids := cand.ExternalIDs()
	if len(ids) != 1 || ids[0] != "tt1375666" {
		t.Fatalf("expected single deduplicated id, got %v", ids)
	}
}

func TestExternalIDsNoURLMatch(t *testing.T) {
	cand := reconcile.Candidate{ExternalURL: "https://example.com/watch?v=123"}
	if ids := cand.ExternalIDs(); len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestExternalIDsURLWithoutTrailingSlash(t *testing.T) {
	cand := reconcile.Candidate{ExternalURL: "imdb.com/title/tt0068646"}
	ids := cand.ExternalIDs()
	if len(ids) != 1 || ids[0] != "tt0068646" {
		t.Fatalf("expected extracted id, got %v", ids)
	}
}

func TestYearNumber(t *testing.T) {
	tests := []struct {
		year string
		want int
	}{
		{"2010", 2010},
		{" 1999 ", 1999},
		{"", 0},
		{"n/a", 0},
		{"-3", 0},
	}
	for _, tt := range tests {
		cand := reconcile.Candidate{Year: tt.year}
		if got := cand.YearNumber(); got != tt.want {
			t.Errorf("YearNumber(%q) = %d, want %d", tt.year, got, tt.want)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercase gets cased", "the dark knight", "The Dark Knight"},
		{"mixed case preserved", "WALL-E", "WALL-E"},
		{"whitespace collapsed", "  blade   runner ", "Blade Runner"},
		{"empty", "", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := reconcile.Candidate{Title: tt.title}
			if got := cand.DisplayTitle(); got != tt.want {
				t.Errorf("DisplayTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
