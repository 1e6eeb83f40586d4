package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelmatch/internal/services"
)

func suggestionPayload(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
}

func TestClientSuggest(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		payload := suggestionPayload(`{"suggestions":[
			{"title":"Inception","year":"2010","reason":"mind-bending heist"},
			{"title":"The Prestige","year":"2006","reason":"rival magicians"}
		]}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	candidates, err := client.Suggest(context.Background(), Preferences{
		MediaType: "movie",
		Genres:    []string{"thriller", "sci-fi"},
		MaxRating: "PG-13",
		Count:     2,
	})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Inception" || candidates[0].Year != "2010" {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
	if candidates[1].Reason != "rival magicians" {
		t.Fatalf("unexpected second candidate: %+v", candidates[1])
	}

	if captured.Model != "demo-model" {
		t.Errorf("request model = %q", captured.Model)
	}
	if captured.ResponseFormat["type"] != jsonResponseType {
		t.Errorf("response_format = %v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Content != RecommendationPrompt {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	user := captured.Messages[1].Content
	for _, want := range []string{"Number of suggestions: 2", "Genres: thriller, sci-fi", "Maximum maturity rating: PG-13"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestClientSuggestNumericYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload(`{"suggestions":[{"title":"Heat","year":1995,"reason":"demo"}]}`)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if candidates[0].Year != "1995" {
		t.Fatalf("expected numeric year normalized to string, got %q", candidates[0].Year)
	}
}

func TestClientSuggestCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload("```json\n{\"suggestions\":[{\"title\":\"Alien\",\"year\":\"1979\",\"reason\":\"demo\"}]}\n```")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if candidates[0].Title != "Alien" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
}

func TestClientSuggestCapsAtRequestedCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload(`{"suggestions":[
			{"title":"A","reason":"1"},
			{"title":"B","reason":"2"},
			{"title":"C","reason":"3"},
			{"title":"D","reason":"4"}
		]}`)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 2})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Title != "A" || candidates[1].Title != "B" {
		t.Fatalf("expected first two suggestions, got %+v", candidates)
	}
}

func TestClientSuggestSkipsBlankTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload(`{"suggestions":[{"title":"  "},{"title":"Arrival","year":"2016","reason":"demo"}]}`)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 5})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Arrival" {
		t.Fatalf("expected blank row skipped, got %+v", candidates)
	}
}

func TestClientSuggestNoUsableTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload(`{"suggestions":[]}`)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Suggest(context.Background(), Preferences{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found for empty suggestion list, got %v", err)
	}
}

func TestClientSuggestRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo-model"})
	_, err := client.Suggest(context.Background(), Preferences{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		payload := suggestionPayload(`{"suggestions":[{"title":"Heat","year":"1995","reason":"demo"}]}`)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(-1, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if candidates[0].Title != "Heat" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep honoring Retry-After, got %v", slept)
	}
}

func TestClientDoesNotRetryBadRequest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad model"})
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	_, err := client.Suggest(context.Background(), Preferences{})
	if err == nil {
		t.Fatal("expected suggest to fail")
	}
	if calls != 1 {
		t.Fatalf("expected single call for client error, got %d", calls)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"suggestions":[{"title":"Heat","year":"1995","reason":"demo"}]}`
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(-1, time.Second),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	candidates, err := client.Suggest(context.Background(), Preferences{Count: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if candidates[0].Title != "Heat" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := suggestionPayload(`{"ok":true}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
