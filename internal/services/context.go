package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	modeKey       contextKey = "mode"
	recordPathKey contextKey = "record_path"
	workerKey     contextKey = "worker"
)

// WithRunID annotates context with the write run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the write run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMode annotates context with the processing mode.
func WithMode(ctx context.Context, mode string) context.Context {
	if mode == "" {
		return ctx
	}
	return context.WithValue(ctx, modeKey, mode)
}

// ModeFromContext returns the processing mode if present.
func ModeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(modeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRecordPath annotates context with the catalog path being processed.
func WithRecordPath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, recordPathKey, path)
}

// RecordPathFromContext returns the record path if present.
func RecordPathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recordPathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorker annotates context with the 1-based writer worker index.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext extracts the writer worker index if present.
func WorkerFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(workerKey).(int)
	return v, ok
}
