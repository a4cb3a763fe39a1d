package writer

import (
	"io/fs"
	"log/slog"
	"os"
)

const defaultDiagnosticLimit = 300

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers the observer notified after each persisted outcome.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkers bounds how many records are processed at once. Values below 1
// keep the sequential protocol.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithDiagnosticLimit caps the tool diagnostic kept for error outcomes.
func WithDiagnosticLimit(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.diagnosticLimit = limit
		}
	}
}

// WithStat replaces the file existence check (primarily for tests).
func WithStat(stat func(string) (fs.FileInfo, error)) Option {
	return func(o *Orchestrator) {
		if stat != nil {
			o.stat = stat
		}
	}
}

func defaultStat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}
