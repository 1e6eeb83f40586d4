package services

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError reports a non-2xx response from an external HTTP collaborator.
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: http %d", e.Service, e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Service, e.Operation, e.StatusCode, body)
}

// NotFound reports whether the response was a 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Transient reports whether the status is worth retrying: request timeouts,
// rate limits, and server-side failures.
func (e *StatusError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// RetryAfterHint exposes the server-provided retry delay to the retry loop.
func (e *StatusError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// ParseRetryAfter interprets a Retry-After header value as either delay
// seconds or an HTTP date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
