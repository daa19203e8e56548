package services

import (
	"context"
	"strings"
)

type contextKey string

const (
	jobIDContextKey     contextKey = "narrate.job_id"
	stageContextKey     contextKey = "narrate.stage"
	requestIDContextKey contextKey = "narrate.request_id"
)

// WithJobID attaches a job identifier to the context for logging.
func WithJobID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDContextKey, id)
}

// JobIDFromContext retrieves a job identifier previously stored on the context.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(jobIDContextKey).(string)
	return id, ok && id != ""
}

// WithStage attaches a pipeline stage name to the context for logging.
func WithStage(ctx context.Context, stage string) context.Context {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageContextKey, stage)
}

// StageFromContext retrieves a stage name previously stored on the context.
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	stage, ok := ctx.Value(stageContextKey).(string)
	return stage, ok && stage != ""
}

// WithRequestID attaches a correlation identifier to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext retrieves a correlation identifier from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok && id != ""
}
