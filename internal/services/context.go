package services

import "context"

type contextKey string

const (
	projectIDKey contextKey = "project_id"
	sceneIDKey   contextKey = "scene_id"
	opIDKey      contextKey = "op_id"
	requestIDKey contextKey = "request_id"
)

// WithProjectID annotates context with the project identifier.
func WithProjectID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, projectIDKey, id)
}

// ProjectIDFromContext extracts the project identifier if present.
func ProjectIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, projectIDKey)
}

// WithSceneID annotates context with the scene identifier.
func WithSceneID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sceneIDKey, id)
}

// SceneIDFromContext extracts the scene identifier if present.
func SceneIDFromContext(ctx context.Context) (int64, bool) {
	return int64Value(ctx, sceneIDKey)
}

// WithOpID annotates context with an optimistic operation identifier.
func WithOpID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, opIDKey, id)
}

// OpIDFromContext returns the operation identifier if present.
func OpIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(opIDKey).(string); ok && v != "" {
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

func int64Value(ctx context.Context, key contextKey) (int64, bool) {
	v := ctx.Value(key)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
