package services

import "context"

type contextKey string

const (
	taskIDKey    contextKey = "task_id"
	entityIDKey  contextKey = "entity_id"
	requestIDKey contextKey = "request_id"
)

// WithTaskID annotates context with the migration task identifier.
func WithTaskID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the migration task identifier if present.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEntityID annotates context with the entity being renamed.
func WithEntityID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, entityIDKey, id)
}

// EntityIDFromContext returns the entity identifier if present.
func EntityIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(entityIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
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
