package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	batchKey     contextKey = "batch"
	requestIDKey contextKey = "request_id"
)

// WithRunID annotates context with the ingestion run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the ingestion run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatch annotates context with the 1-based batch number.
func WithBatch(ctx context.Context, batch int) context.Context {
	if batch <= 0 {
		return ctx
	}
	return context.WithValue(ctx, batchKey, batch)
}

// BatchFromContext extracts the batch number if present.
func BatchFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(batchKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
