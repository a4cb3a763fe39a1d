package writerun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
	"mediakeep/internal/exif"
	"mediakeep/internal/exiftool"
	"mediakeep/internal/logging"
	"mediakeep/internal/services"
	"mediakeep/internal/session"
	"mediakeep/internal/writer"
)

// ErrRunInProgress is returned when another write run holds the catalog lock.
var ErrRunInProgress = errors.New("another write run holds the catalog lock")

// Options configures one write run. Zero values fall back to the config.
type Options struct {
	Mode    string
	Workers int
	DryRun  bool
	// Logger replaces the console and run-log logger (primarily for tests).
	Logger *slog.Logger
	// HandleSignals cancels the run on SIGINT/SIGTERM.
	HandleSignals bool
}

// Planned describes what a dry run would write for one record.
type Planned struct {
	Path       string
	Kind       exif.FileKind
	SkipReason string
	Directives []exif.Directive
	Warnings   []string
}

// Report summarizes a run for the CLI.
type Report struct {
	RunID     string
	Mode      string
	Workers   int
	LogPath   string
	DryRun    bool
	Selected  int
	Processed int
	Canceled  bool
	Session   session.Snapshot
	Plans     []Planned
	Elapsed   time.Duration
}

// Run selects records for the mode and writes their metadata.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Report, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "writerun", "start", "config is required", nil)
	}
	mode := config.NormalizeMode(opts.Mode)
	if mode == "" {
		mode = config.NormalizeMode(cfg.Writer.Mode)
	}
	if err := config.ValidateMode(mode); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "writerun", "start", "processing mode", err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Writer.Workers
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	if opts.HandleSignals {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
	}

	runID := uuid.NewString()
	report := &Report{RunID: runID, Mode: mode, Workers: workers, DryRun: opts.DryRun}
	logger := opts.Logger
	if logger == nil {
		stamp := time.Now().UTC().Format("20060102T150405.000Z")
		report.LogPath = filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mediakeep-%s.log", stamp))
		var err error
		logger, err = logging.NewFromConfig(cfg, report.LogPath)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
			logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.RunLogPattern, Exclude: []string{report.LogPath}},
		)
	}
	ctx = services.WithMode(services.WithRunID(ctx, runID), mode)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "writerun"))

	if opts.DryRun {
		return report, dryRun(ctx, cfg, logger, report)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "run_lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no run is active"),
				logging.String(logging.FieldImpact, "next run may report a run in progress"),
			)
		}
	}()

	binary, err := exiftool.Locate(cfg.ExifToolBinary())
	if err != nil {
		logging.ErrorWithContext(logger, "exiftool not found", "tool_not_found",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install exiftool or set exiftool.binary in the config"),
		)
		return nil, err
	}
	tool, err := exiftool.New(binary)
	if err != nil {
		return nil, err
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	// Selection runs to completion; cancellation applies at record boundaries.
	records, err := store.RecordsForWrite(context.WithoutCancel(ctx), mode)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	report.Selected = len(records)
	logger.Info("write run started",
		logging.String(logging.FieldEventType, "write_run_start"),
		logging.Int("selected", len(records)),
		logging.Int("workers", workers),
		logging.String("exiftool", binary),
		logging.String("catalog", store.Path()),
	)

	agg := session.NewAggregator(cfg.Writer.SessionLogSize)
	orch, err := writer.New(tool, store,
		writer.WithObserver(agg),
		writer.WithLogger(logger),
		writer.WithWorkers(workers),
		writer.WithDiagnosticLimit(cfg.Writer.DiagnosticLimit),
	)
	if err != nil {
		return nil, err
	}

	result, runErr := orch.Run(ctx, records)
	report.Processed = result.Processed
	report.Canceled = result.Canceled
	report.Elapsed = result.Elapsed
	report.Session = agg.Snapshot()

	counters := report.Session.Counters
	logger.Info("write run finished",
		logging.String(logging.FieldEventType, "write_run_complete"),
		logging.Int("success", counters.Success),
		logging.Int("partial", counters.Partial),
		logging.Int("error", counters.Error),
		logging.Int("skipped", counters.Skipped),
		logging.Bool("canceled", report.Canceled),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, runErr
}

// dryRun builds the plan for every selected record without invoking the tool
// or touching stored statuses.
func dryRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, report *Report) error {
	start := time.Now()
	store, err := catalog.Open(cfg)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	records, err := store.RecordsForWrite(context.WithoutCancel(ctx), report.Mode)
	if err != nil {
		return fmt.Errorf("select records: %w", err)
	}
	report.Selected = len(records)
	for _, rec := range records {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
		report.Plans = append(report.Plans, planRecord(rec))
	}
	report.Processed = len(report.Plans)
	report.Elapsed = time.Since(start)
	logger.Info("dry run finished",
		logging.String(logging.FieldEventType, "dry_run_complete"),
		logging.Int("selected", report.Selected),
	)
	return nil
}

func planRecord(rec *catalog.Record) Planned {
	planned := Planned{Path: rec.Path, Kind: exif.KindForPath(rec.Path)}
	if _, err := os.Stat(rec.Path); errors.Is(err, os.ErrNotExist) {
		planned.SkipReason = writer.ReasonFileMissing
		return planned
	}
	meta, err := exif.Parse(rec.MetadataJSON)
	if err != nil {
		planned.SkipReason = writer.ReasonInvalidMetadata
		return planned
	}
	plan := exif.Build(meta, planned.Kind)
	planned.Directives = plan.Directives
	planned.Warnings = plan.Warnings
	if plan.Empty() {
		planned.SkipReason = writer.ReasonNoDirectives
	}
	return planned
}
