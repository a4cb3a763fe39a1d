package writer

import (
	"context"
	"fmt"
	"time"

	"mediakeep/internal/catalog"
	"mediakeep/internal/exif"
	"mediakeep/internal/exiftool"
)

// Skip reasons persisted as write_detail for skipped records.
const (
	ReasonFileMissing     = "file missing"
	ReasonNoDirectives    = "no directives"
	ReasonInvalidMetadata = "invalid metadata"
)

// Tool executes write directives against one file.
type Tool interface {
	Invoke(ctx context.Context, path string, directives []exif.Directive) (exiftool.Result, error)
	InvokeSingle(ctx context.Context, path string, directive exif.Directive) (exiftool.Result, error)
}

// StatusRecorder persists one outcome per path. Implementations must be
// idempotent for repeated identical calls.
type StatusRecorder interface {
	MarkWriteStatus(ctx context.Context, path string, status catalog.WriteStatus, detail string) error
}

// Observer receives every persisted outcome. With more than one worker calls
// arrive concurrently and in completion order.
type Observer interface {
	Observe(Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Result)

// Observe calls f(res).
func (f ObserverFunc) Observe(res Result) { f(res) }

// Result is the outcome of one record.
type Result struct {
	Path   string
	Status catalog.WriteStatus
	// Applied and Total count directives; Applied equals Total on success.
	Applied int
	Total   int
	// Detail is the text persisted alongside the status.
	Detail string
	// Err is the cause of an error outcome.
	Err error
	// PersistErr is set when the catalog rejected the status update.
	PersistErr error
	Fallback   bool
	Worker     int
	Duration   time.Duration
}

// Summary renders a one-line description for the session log.
func (r Result) Summary() string {
	switch r.Status {
	case catalog.StatusSuccess:
		return fmt.Sprintf("wrote %d directives", r.Total)
	case catalog.StatusPartial:
		return r.Detail
	case catalog.StatusSkipped:
		return "skipped: " + r.Detail
	case catalog.StatusError:
		if r.Detail != "" {
			return "failed: " + r.Detail
		}
		return "failed"
	default:
		return string(r.Status)
	}
}

// Report describes a finished run.
type Report struct {
	Selected  int
	Processed int
	// Canceled is set when the run context ended before every record was taken.
	Canceled bool
	Elapsed  time.Duration
}
