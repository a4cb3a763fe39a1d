package writer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"mediakeep/internal/catalog"
	"mediakeep/internal/logging"
	"mediakeep/internal/services"
)

// Orchestrator drives the write protocol over a batch of catalog records.
type Orchestrator struct {
	tool            Tool
	recorder        StatusRecorder
	observer        Observer
	logger          *slog.Logger
	workers         int
	diagnosticLimit int
	stat            func(string) (fs.FileInfo, error)
}

// New constructs an orchestrator. Tool and recorder are required.
func New(tool Tool, recorder StatusRecorder, opts ...Option) (*Orchestrator, error) {
	if tool == nil {
		return nil, services.Wrap(services.ErrConfiguration, "writer", "init", "metadata tool required", nil)
	}
	if recorder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "writer", "init", "status recorder required", nil)
	}
	o := &Orchestrator{
		tool:            tool,
		recorder:        recorder,
		observer:        ObserverFunc(func(Result) {}),
		logger:          logging.NewNop(),
		workers:         1,
		diagnosticLimit: defaultDiagnosticLimit,
		stat:            defaultStat,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "writer")
	return o, nil
}

// Run processes records until all are done, ctx is cancelled, or the catalog
// becomes unreachable. Records taken before cancellation are always finished
// and persisted. The returned error is non-nil only for a fatal condition.
func (o *Orchestrator) Run(ctx context.Context, records []*catalog.Record) (Report, error) {
	start := time.Now()
	report := Report{Selected: len(records)}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		mu        sync.Mutex
		fatal     error
		processed int
		wg        sync.WaitGroup
	)
	jobs := make(chan *catalog.Record)

	for i := 1; i <= o.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for rec := range jobs {
				// A record handed over as the run ends is dropped untouched.
				if runCtx.Err() != nil {
					continue
				}
				err := o.handle(runCtx, worker, rec)
				mu.Lock()
				processed++
				if err != nil && fatal == nil {
					fatal = err
					stop()
				}
				mu.Unlock()
			}
		}(i)
	}

dispatch:
	for _, rec := range records {
		if rec == nil {
			continue
		}
		select {
		case <-runCtx.Done():
			break dispatch
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()

	report.Processed = processed
	report.Elapsed = time.Since(start)
	if fatal != nil {
		o.logger.Error("write run aborted",
			logging.Error(fatal),
			logging.Int("processed", processed),
			logging.String(logging.FieldEventType, "write_run_aborted"),
			logging.String(logging.FieldErrorHint, "check that the catalog database is reachable"),
		)
		return report, fatal
	}
	report.Canceled = ctx.Err() != nil && processed < countRecords(records)
	if report.Canceled {
		o.logger.Info("write run canceled",
			logging.Int("processed", processed),
			logging.Int("remaining", countRecords(records)-processed),
			logging.String(logging.FieldEventType, "write_run_canceled"),
		)
	}
	return report, nil
}

func countRecords(records []*catalog.Record) int {
	n := 0
	for _, rec := range records {
		if rec != nil {
			n++
		}
	}
	return n
}

// handle runs the full protocol for one record: compute, persist, observe.
// It returns an error only when the run must stop.
func (o *Orchestrator) handle(ctx context.Context, worker int, rec *catalog.Record) error {
	recCtx := services.WithRecordPath(services.WithWorker(ctx, worker), rec.Path)
	logger := logging.WithContext(recCtx, o.logger)

	start := time.Now()
	res := o.process(recCtx, logger, rec)
	res.Worker = worker
	res.Duration = time.Since(start)

	// The outcome is already decided; a cancelled run still records it.
	persistCtx := context.WithoutCancel(recCtx)
	var fatal error
	if err := o.recorder.MarkWriteStatus(persistCtx, rec.Path, res.Status, res.Detail); err != nil {
		res.PersistErr = services.Wrap(services.ErrPersistence, "writer", "mark status", rec.Path, err)
		if errors.Is(err, catalog.ErrUnavailable) {
			fatal = res.PersistErr
		} else {
			logging.WarnWithContext(logger, "write status not persisted",
				"write_status_persist_failed",
				logging.Error(err),
				logging.String(logging.FieldOutcome, string(res.Status)),
				logging.String(logging.FieldImpact, "catalog keeps the previous status; a force_refresh run will retry this file"),
				logging.String(logging.FieldErrorHint, "check catalog database permissions and locks"),
			)
		}
	}

	logOutcome(logger, res)
	o.observer.Observe(res)
	return fatal
}

func logOutcome(logger *slog.Logger, res Result) {
	attrs := []logging.Attr{
		logging.String(logging.FieldOutcome, string(res.Status)),
		logging.String(logging.FieldEventType, "write_outcome"),
		logging.Int("applied", res.Applied),
		logging.Int("total", res.Total),
		logging.Bool("fallback", res.Fallback),
		logging.Duration("duration", res.Duration),
	}
	if res.Detail != "" {
		attrs = append(attrs, logging.String("detail", res.Detail))
	}
	switch res.Status {
	case catalog.StatusError:
		attrs = append(attrs,
			logging.Error(res.Err),
			logging.String(logging.FieldErrorHint, "run exiftool by hand on the file to see the rejected field"),
		)
		logger.Error("metadata write failed", logging.Args(attrs...)...)
	case catalog.StatusPartial:
		logging.WarnWithContext(logger, "metadata partially written", "write_outcome",
			append(attrs,
				logging.String(logging.FieldImpact, "some fields were not written to the file"),
				logging.String(logging.FieldErrorHint, "inspect the debug log for rejected directives, then run with --mode retry_errors"),
			)...)
	default:
		logger.Info("metadata write finished", logging.Args(attrs...)...)
	}
}

// truncate caps s at limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...", s[:cut])
}
