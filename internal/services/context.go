package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	entryIDKey contextKey = "entry_id"
	fileKey    contextKey = "file"
)

// WithRunID annotates context with the sync run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the sync run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEntryID annotates context with the catalog entry identifier.
func WithEntryID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, entryIDKey, id)
}

// EntryIDFromContext extracts the catalog entry identifier if present.
func EntryIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(entryIDKey)
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

// WithFile annotates context with the video file being processed.
func WithFile(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, fileKey, path)
}

// FileFromContext returns the video file path if present.
func FileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
