package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyJobID     contextKey = "job_id"
	ContextKeyJobKind   contextKey = "job_kind"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithJob tags the context with the job being processed so every log line carries it.
func WithJob(ctx context.Context, jobID, kind string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyJobID, jobID)
	return context.WithValue(ctx, ContextKeyJobKind, kind)
}

// JobIDFromContext extracts the job ID from context
func JobIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyJobID).(string); ok {
		return id
	}
	return ""
}

// JobKindFromContext extracts the job kind from context
func JobKindFromContext(ctx context.Context) string {
	if kind, ok := ctx.Value(ContextKeyJobKind).(string); ok {
		return kind
	}
	return ""
}
