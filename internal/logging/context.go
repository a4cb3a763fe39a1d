package logging

import (
	"context"
	"log/slog"

	"mediakeep/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for write run identifiers.
	FieldRunID = "run_id"
	// FieldMode is the standardized structured logging key for processing modes.
	FieldMode = "mode"
	// FieldPath is the standardized structured logging key for the media file being written.
	FieldPath = "path"
	// FieldWorker is the standardized structured logging key for writer worker indexes.
	FieldWorker = "worker"
	// FieldOutcome is the standardized structured logging key for write outcomes.
	FieldOutcome = "outcome"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if mode, ok := services.ModeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMode, mode))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldWorker, worker))
	}
	if path, ok := services.RecordPathFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPath, path))
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
	return logger.With(attrsToArgs(fields)...)
}
