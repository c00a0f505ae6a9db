package logging

import (
	"context"
	"log/slog"

	"cutify/internal/services"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ProjectIDFromContext(ctx); ok {
		fields = append(fields, ProjectID(id))
	}
	if id, ok := services.SceneIDFromContext(ctx); ok {
		fields = append(fields, SceneID(id))
	}
	if op, ok := services.OpIDFromContext(ctx); ok {
		fields = append(fields, OpID(op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
