package logging

import (
	"context"
	"log/slog"

	"cinelog/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for sync run identifiers.
	FieldRunID = "run_id"
	// FieldEntryID is the standardized structured logging key for catalog entry identifiers.
	FieldEntryID = "entry_id"
	// FieldFile is the standardized structured logging key for video file paths.
	FieldFile = "file"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.EntryIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldEntryID, id))
	}
	if path, ok := services.FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, path))
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
