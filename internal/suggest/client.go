package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reelmatch/internal/reconcile"
	"reelmatch/internal/retry"
	"reelmatch/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5

	// suggestionTemperature leaves the model some room so identical quizzes
	// do not always produce the same list.
	suggestionTemperature = 0.7

	defaultSuggestionCount = 10
	maxSuggestionCount     = 20
)

// Config captures the runtime settings required to talk to the suggestion
// model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DefaultHTTPTimeout returns the default timeout used for suggestion
// requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Preferences is one quiz submission. Callers hold the value and thread it
// into each call; nothing in this package remembers a previous quiz.
type Preferences struct {
	MediaType string   `json:"media_type,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Moods     []string `json:"moods,omitempty"`
	Era       string   `json:"era,omitempty"`
	MaxRating string   `json:"max_rating,omitempty"`
	Count     int      `json:"count,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Client wraps the OpenRouter chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a suggestion client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type suggestionRow struct {
	Title  string          `json:"title"`
	Year   json.RawMessage `json:"year"`
	Reason string          `json:"reason"`
}

type suggestionEnvelope struct {
	Suggestions []suggestionRow `json:"suggestions"`
}

// Suggest asks the model for candidate titles matching the preferences. The
// returned candidates preserve the model's ranking and are capped at the
// requested count.
func (c *Client) Suggest(ctx context.Context, prefs Preferences) ([]reconcile.Candidate, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "suggest", "suggest", "api key required", nil)
	}
	count := prefs.Count
	if count <= 0 {
		count = defaultSuggestionCount
	}
	if count > maxSuggestionCount {
		count = maxSuggestionCount
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: RecommendationPrompt},
			{Role: "user", Content: buildUserPrompt(prefs, count)},
		},
		Temperature:    suggestionTemperature,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.completionContent(ctx, payload, "suggest")
	if err != nil {
		return nil, err
	}

	var envelope suggestionEnvelope
	if err := DecodeModelJSON(content, &envelope); err != nil {
		return nil, fmt.Errorf("suggest: parse payload: %w", err)
	}

	candidates := make([]reconcile.Candidate, 0, len(envelope.Suggestions))
	for _, row := range envelope.Suggestions {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		candidates = append(candidates, reconcile.Candidate{
			Title:  title,
			Year:   yearString(row.Year),
			Reason: strings.TrimSpace(row.Reason),
		})
		if len(candidates) == count {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "suggest", "suggest", "model returned no usable titles", nil)
	}
	return candidates, nil
}

// yearString tolerates models that return the year as a number instead of a
// string.
func yearString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil && asNumber > 0 {
		return strconv.Itoa(asNumber)
	}
	return ""
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "suggest", "health", "api key required", nil)
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.completionContent(ctx, payload, "suggest health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return fmt.Errorf("suggest health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("suggest health: unexpected response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// completionContent sends the request through the shared retry loop and
// returns the first non-empty completion payload.
func (c *Client) completionContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	policy := retry.Policy{
		MaxAttempts: c.retryMaxAttempts,
		BaseDelay:   c.retryBaseDelay,
		MaxDelay:    c.retryMaxDelay,
		Retryable:   services.Retryable,
		Sleeper:     c.sleeper,
	}

	var content string
	err := retry.Do(ctx, policy, op, func(ctx context.Context) error {
		completion, body, err := c.sendChatRequestOnce(ctx, payload)
		if err != nil {
			return err
		}
		extracted, finishReason := extractCompletionPayload(completion)
		if extracted == "" {
			if len(completion.Choices) == 0 {
				return fmt.Errorf("%s: empty choices", op)
			}
			return &emptyContentError{
				Op:           op,
				FinishReason: finishReason,
				Refusal:      extractCompletionRefusal(completion),
				Snippet:      summarizePayloadSnippet(string(body)),
			}
		}
		content = extracted
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
		); content != "" {
			return content, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, retry.Permanent(fmt.Errorf("suggest request: encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, retry.Permanent(fmt.Errorf("suggest request: new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("suggest request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("suggest request: read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, body, &services.StatusError{
			Service:    "suggest",
			Operation:  "chat",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, retry.Permanent(fmt.Errorf("suggest request: decode response: %w", err))
	}
	if completion.Error != nil {
		return completion, body, retry.Permanent(fmt.Errorf("suggest request: api error: %s", strings.TrimSpace(completion.Error.Message)))
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil {
		return defaultHTTPTimeout
	}
	if c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}
