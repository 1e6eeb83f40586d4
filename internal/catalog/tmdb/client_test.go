package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelmatch/internal/catalog/tmdb"
	"reelmatch/internal/services"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := tmdb.New("key", "  ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchMovieSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("query") != "Example" {
			t.Fatalf("expected query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Example"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovieWithOptions(context.Background(), "Example", tmdb.SearchOptions{})
	if err != nil {
		t.Fatalf("SearchMovieWithOptions returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Example" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMovieYearFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("primary_release_year") != "2010" {
			t.Fatalf("expected year filter, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovieWithOptions(context.Background(), "Inception", tmdb.SearchOptions{Year: 2010}); err != nil {
		t.Fatalf("search returned error: %v", err)
	}
}

func TestSearchMovieHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status_code":429}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.SearchMovieWithOptions(context.Background(), "fail", tmdb.SearchOptions{})
	if err == nil {
		t.Fatal("expected error when TMDB returns non-200")
	}
	var statusErr *services.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if !statusErr.Transient() {
		t.Fatal("429 should classify as transient")
	}
	if statusErr.RetryAfterHint() <= 0 {
		t.Fatal("expected retry-after hint to be parsed")
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovieWithOptions(context.Background(), "  ", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestFindByExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt1375666" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("external_source") != "imdb_id" {
			t.Fatalf("expected external_source parameter, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"movie_results":[{"id":27205,"title":"Inception"}],"tv_results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	resp, err := client.FindByExternalID(context.Background(), "tt1375666")
	if err != nil {
		t.Fatalf("FindByExternalID returned error: %v", err)
	}
	if len(resp.MovieResults) != 1 || resp.MovieResults[0].ID != 27205 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestGetMovieDetailsParsesCertification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/27205" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("append_to_response") != "release_dates" {
			t.Fatalf("expected release_dates appendage, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"id":27205,
			"title":"Inception",
			"release_date":"2010-07-16",
			"genres":[{"id":28,"name":"Action"}],
			"release_dates":{"results":[{"iso_3166_1":"US","release_dates":[{"certification":"PG-13"}]}]}
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := client.GetMovieDetails(context.Background(), 27205)
	if err != nil {
		t.Fatalf("GetMovieDetails returned error: %v", err)
	}
	if result.MediaType != "movie" {
		t.Fatalf("expected media type movie, got %q", result.MediaType)
	}
	if result.ReleaseDates == nil || len(result.ReleaseDates.Results) != 1 {
		t.Fatalf("expected release dates payload, got %#v", result.ReleaseDates)
	}
	if len(result.Genres) != 1 || result.Genres[0].Name != "Action" {
		t.Fatalf("unexpected genres: %#v", result.Genres)
	}
}

func TestGetTVDetailsParsesContentRating(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("append_to_response") != "content_ratings" {
			t.Fatalf("expected content_ratings appendage, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"id":1396,
			"name":"Breaking Bad",
			"first_air_date":"2008-01-20",
			"content_ratings":{"results":[{"iso_3166_1":"US","rating":"TV-MA"}]}
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	result, err := client.GetTVDetails(context.Background(), 1396)
	if err != nil {
		t.Fatalf("GetTVDetails returned error: %v", err)
	}
	if result.MediaType != "tv" {
		t.Fatalf("expected media type tv, got %q", result.MediaType)
	}
	if result.ContentRatings == nil || result.ContentRatings.Results[0].Rating != "TV-MA" {
		t.Fatalf("expected content rating payload, got %#v", result.ContentRatings)
	}
}

func TestGetMovieDetailsRejectsNonPositiveID(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetMovieDetails(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive id")
	}
}
