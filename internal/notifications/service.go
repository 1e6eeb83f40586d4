package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelmatch/internal/config"
)

const userAgent = "Reelmatch-Go/0.1.0"

// Service defines the notification surface exposed to the ingest manager.
type Service interface {
	NotifyIngestStarted(ctx context.Context, runID string, count int) error
	NotifyIngestCompleted(ctx context.Context, runID string, accepted, failed int, duration time.Duration) error
	NotifyIngestAborted(ctx context.Context, runID, reason string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:     topic,
		client:       client,
		ingestEvents: cfg.Notifications.Ingest,
		errorEvents:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	ingestEvents bool
	errorEvents  bool
}

func (n *ntfyService) NotifyIngestStarted(ctx context.Context, runID string, count int) error {
	if !n.ingestEvents {
		return nil
	}
	runID = strings.TrimSpace(runID)
	data := payload{
		title:   "Reelmatch - Ingest Started",
		message: fmt.Sprintf("Started ingest run %s with %d candidates", runID, count),
		tags:    []string{"reelmatch", "ingest", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, runID string, accepted, failed int, duration time.Duration) error {
	if !n.ingestEvents {
		return nil
	}
	runID = strings.TrimSpace(runID)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var message string
	var title string
	if failed == 0 {
		title = "Reelmatch - Ingest Complete"
		message = fmt.Sprintf("Ingest run %s complete: %d titles accepted in %s", runID, accepted, durationText)
	} else {
		title = "Reelmatch - Ingest Complete (with errors)"
		message = fmt.Sprintf("Ingest run %s complete: %d accepted, %d failed in %s", runID, accepted, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reelmatch", "ingest", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestAborted(ctx context.Context, runID, reason string) error {
	if !n.errorEvents {
		return nil
	}
	runID = strings.TrimSpace(runID)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Reelmatch - Ingest Aborted",
		message:  fmt.Sprintf("Ingest run %s aborted: %s", runID, reason),
		tags:     []string{"reelmatch", "ingest", "aborted"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelmatch - Error",
		message:  builder.String(),
		tags:     []string{"reelmatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelmatch - Test",
		message:  "Notification system test",
		tags:     []string{"reelmatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyIngestStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyIngestCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyIngestAborted(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
