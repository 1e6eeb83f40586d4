package services_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"reelmatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "catalog", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "catalog", "details", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", services.Wrap(services.ErrNotFound, "catalog", "lookup", "missing", nil), false},
		{"validation", services.Wrap(services.ErrValidation, "suggest", "prompt", "empty", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "catalog", "new", "no key", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "catalog", "search", "", errors.New("io")), true},
		{"timeout marker", services.Wrap(services.ErrTimeout, "catalog", "search", "", nil), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"unknown error", errors.New("decode failure"), true},
		{"http 500", &services.StatusError{Service: "catalog", StatusCode: http.StatusInternalServerError}, true},
		{"http 429", &services.StatusError{Service: "catalog", StatusCode: http.StatusTooManyRequests}, true},
		{"http 404", &services.StatusError{Service: "catalog", StatusCode: http.StatusNotFound}, false},
		{"http 400", &services.StatusError{Service: "catalog", StatusCode: http.StatusBadRequest}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &services.StatusError{Service: "catalog", Operation: "search", StatusCode: 503, Body: "overloaded"}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "search", "503", "overloaded"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := services.ParseRetryAfter("30"); !ok || d != 30*time.Second {
		t.Fatalf("ParseRetryAfter(30) = %v, %v", d, ok)
	}
	if _, ok := services.ParseRetryAfter(""); ok {
		t.Fatal("empty value should not parse")
	}
	if _, ok := services.ParseRetryAfter("-5"); ok {
		t.Fatal("negative value should not parse")
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if d, ok := services.ParseRetryAfter(future); !ok || d <= 0 || d > 90*time.Second {
		t.Fatalf("ParseRetryAfter(date) = %v, %v", d, ok)
	}
}
