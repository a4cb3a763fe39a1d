package writer_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
	"mediakeep/internal/exif"
	"mediakeep/internal/exiftool"
	"mediakeep/internal/session"
	"mediakeep/internal/testsupport"
	"mediakeep/internal/writer"
)

// fiveDirectives yields three date directives and make/model for an image.
const fiveDirectives = `{"datetime":"2019-07-04 18:22:05","camera":"Canon EOS"}`

var confirmed = exiftool.Result{Stdout: "    1 image files updated\n"}

type fakeTool struct {
	mu          sync.Mutex
	batch       func(path string) (exiftool.Result, error)
	single      func(call int, d exif.Directive) (exiftool.Result, error)
	batchPaths  []string
	singleCalls int
}

func (f *fakeTool) Invoke(ctx context.Context, path string, directives []exif.Directive) (exiftool.Result, error) {
	f.mu.Lock()
	f.batchPaths = append(f.batchPaths, path)
	f.mu.Unlock()
	if f.batch == nil {
		return confirmed, nil
	}
	return f.batch(path)
}

func (f *fakeTool) InvokeSingle(ctx context.Context, path string, directive exif.Directive) (exiftool.Result, error) {
	f.mu.Lock()
	call := f.singleCalls
	f.singleCalls++
	f.mu.Unlock()
	if f.single == nil {
		return exiftool.Result{ExitCode: 1, Stderr: "rejected"}, nil
	}
	return f.single(call, directive)
}

func (f *fakeTool) invoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.batchPaths...)
}

type fixture struct {
	store *catalog.Store
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &fixture{
		store: testsupport.MustOpenCatalog(t, cfg),
		dir:   filepath.Join(testsupport.BaseDir(cfg), "media"),
	}
}

// add registers a record; when onDisk is set the file is created too.
func (f *fixture) add(t *testing.T, name, metadata string, onDisk bool) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if onDisk {
		testsupport.WriteFile(t, path, 8)
	}
	testsupport.AddRecord(t, f.store, path, metadata)
	return path
}

func (f *fixture) records(t *testing.T, mode string) []*catalog.Record {
	t.Helper()
	records, err := f.store.RecordsForWrite(context.Background(), mode)
	if err != nil {
		t.Fatalf("RecordsForWrite: %v", err)
	}
	return records
}

func runOnce(t *testing.T, f *fixture, tool writer.Tool, mode string, opts ...writer.Option) (writer.Report, session.Snapshot) {
	t.Helper()
	agg := session.NewAggregator(10)
	orch, err := writer.New(tool, f.store, append([]writer.Option{writer.WithObserver(agg)}, opts...)...)
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}
	report, err := orch.Run(context.Background(), f.records(t, mode))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report, agg.Snapshot()
}

func TestBatchSuccessSkipsFallback(t *testing.T) {
	f := newFixture(t)
	path := f.add(t, "a.jpg", fiveDirectives, true)
	tool := &fakeTool{}

	report, snap := runOnce(t, f, tool, config.ModeNewOnly)
	if report.Processed != 1 || snap.Counters.Success != 1 {
		t.Fatalf("unexpected report %+v counters %+v", report, snap.Counters)
	}
	if tool.singleCalls != 0 {
		t.Fatalf("expected no fallback invocations, got %d", tool.singleCalls)
	}
	rec := testsupport.MustGet(t, f.store, path)
	if rec.WriteStatus != catalog.StatusSuccess || rec.WriteDetail != "" {
		t.Fatalf("unexpected stored record %#v", rec)
	}
}

func TestPartialWhenSomeDirectivesApply(t *testing.T) {
	f := newFixture(t)
	path := f.add(t, "a.jpg", fiveDirectives, true)
	tool := &fakeTool{
		batch: func(string) (exiftool.Result, error) {
			return exiftool.Result{ExitCode: 1, Stderr: "Error: bad value"}, nil
		},
		single: func(call int, _ exif.Directive) (exiftool.Result, error) {
			if call == 1 || call == 4 {
				return exiftool.Result{}, nil
			}
			return exiftool.Result{ExitCode: 1}, nil
		},
	}

	var observed writer.Result
	orch, err := writer.New(tool, f.store, writer.WithObserver(writer.ObserverFunc(func(res writer.Result) { observed = res })))
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}
	if _, err := orch.Run(context.Background(), f.records(t, config.ModeNewOnly)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if tool.singleCalls != 5 {
		t.Fatalf("expected 5 fallback invocations, got %d", tool.singleCalls)
	}
	if observed.Status != catalog.StatusPartial || observed.Applied != 2 || observed.Total != 5 || !observed.Fallback {
		t.Fatalf("unexpected result %+v", observed)
	}
	rec := testsupport.MustGet(t, f.store, path)
	if rec.WriteStatus != catalog.StatusPartial || rec.WriteDetail != "applied 2/5 directives" {
		t.Fatalf("unexpected stored record %#v", rec)
	}
}

func TestZeroFilesUpdatedTriggersFallback(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a.jpg", fiveDirectives, true)
	tool := &fakeTool{
		batch: func(string) (exiftool.Result, error) {
			return exiftool.Result{Stdout: "    0 image files updated\n    1 image files unchanged\n"}, nil
		},
		single: func(int, exif.Directive) (exiftool.Result, error) { return exiftool.Result{}, nil },
	}

	_, snap := runOnce(t, f, tool, config.ModeNewOnly)
	if snap.Counters.Partial != 1 || tool.singleCalls != 5 {
		t.Fatalf("expected partial after fallback, got %+v with %d calls", snap.Counters, tool.singleCalls)
	}
}

func TestErrorWhenEveryDirectiveFails(t *testing.T) {
	f := newFixture(t)
	path := f.add(t, "a.jpg", fiveDirectives, true)
	long := "Error: " + strings.Repeat("x", 100)
	tool := &fakeTool{
		batch: func(string) (exiftool.Result, error) { return exiftool.Result{}, errors.New("spawn failed") },
		single: func(int, exif.Directive) (exiftool.Result, error) {
			return exiftool.Result{ExitCode: 1, Stderr: long}, nil
		},
	}

	_, snap := runOnce(t, f, tool, config.ModeNewOnly, writer.WithDiagnosticLimit(20))
	if snap.Counters.Error != 1 {
		t.Fatalf("expected error outcome, got %+v", snap.Counters)
	}
	rec := testsupport.MustGet(t, f.store, path)
	if rec.WriteStatus != catalog.StatusError {
		t.Fatalf("unexpected stored status %q", rec.WriteStatus)
	}
	if rec.WriteDetail != long[:20]+"..." {
		t.Fatalf("diagnostic not truncated: %q", rec.WriteDetail)
	}
}

func TestSkippedOutcomes(t *testing.T) {
	f := newFixture(t)
	missing := f.add(t, "missing.jpg", fiveDirectives, false)
	empty := f.add(t, "empty.jpg", `{"people":[],"camera":"  "}`, true)
	invalid := f.add(t, "invalid.jpg", `["not","an","object"]`, true)
	tool := &fakeTool{}

	_, snap := runOnce(t, f, tool, config.ModeNewOnly)
	if snap.Counters.Skipped != 3 {
		t.Fatalf("expected 3 skipped, got %+v", snap.Counters)
	}
	if calls := tool.invoked(); len(calls) != 0 || tool.singleCalls != 0 {
		t.Fatalf("skipped records must not invoke the tool: %v", calls)
	}
	for path, reason := range map[string]string{
		missing: writer.ReasonFileMissing,
		empty:   writer.ReasonNoDirectives,
		invalid: writer.ReasonInvalidMetadata,
	} {
		rec := testsupport.MustGet(t, f.store, path)
		if rec.WriteStatus != catalog.StatusSkipped || rec.WriteDetail != reason {
			t.Fatalf("%s: got %q/%q, want skipped/%q", path, rec.WriteStatus, rec.WriteDetail, reason)
		}
	}
}

func TestUnusableTimestampStillWritesOtherFields(t *testing.T) {
	f := newFixture(t)
	boolDate := f.add(t, "a.jpg", `{"datetime":true,"camera":"Canon EOS"}`, true)
	hugeEpoch := f.add(t, "b.jpg", `{"datetime":9999999999999999999,"camera":"Canon EOS"}`, true)
	tool := &fakeTool{}

	_, snap := runOnce(t, f, tool, config.ModeNewOnly)
	if snap.Counters.Success != 2 || snap.Counters.Skipped != 0 {
		t.Fatalf("expected 2 successes, got %+v", snap.Counters)
	}
	if tool.singleCalls != 0 {
		t.Fatalf("expected no fallback invocations, got %d", tool.singleCalls)
	}
	for _, path := range []string{boolDate, hugeEpoch} {
		if rec := testsupport.MustGet(t, f.store, path); rec.WriteStatus != catalog.StatusSuccess {
			t.Fatalf("%s: expected success, got %q/%q", path, rec.WriteStatus, rec.WriteDetail)
		}
	}
}

func TestPanicBecomesErrorAndRunContinues(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "a.jpg", fiveDirectives, true)
	second := f.add(t, "b.jpg", fiveDirectives, true)
	tool := &fakeTool{
		batch: func(path string) (exiftool.Result, error) {
			if path == first {
				panic("boom")
			}
			return confirmed, nil
		},
	}

	_, snap := runOnce(t, f, tool, config.ModeNewOnly)
	if snap.Counters.Error != 1 || snap.Counters.Success != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
	if rec := testsupport.MustGet(t, f.store, first); rec.WriteStatus != catalog.StatusError || !strings.Contains(rec.WriteDetail, "boom") {
		t.Fatalf("unexpected panic record %#v", rec)
	}
	if rec := testsupport.MustGet(t, f.store, second); rec.WriteStatus != catalog.StatusSuccess {
		t.Fatalf("run must continue after a panic, got %#v", rec)
	}
}

func TestCancellationAfterKRecords(t *testing.T) {
	f := newFixture(t)
	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	for _, name := range names {
		f.add(t, name, fiveDirectives, true)
	}
	const k = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seen := 0
	observer := writer.ObserverFunc(func(writer.Result) {
		seen++
		if seen == k {
			cancel()
		}
	})
	tool := &fakeTool{}
	orch, err := writer.New(tool, f.store, writer.WithObserver(observer))
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}

	report, err := orch.Run(ctx, f.records(t, config.ModeNewOnly))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != k || !report.Canceled {
		t.Fatalf("unexpected report %+v", report)
	}
	if calls := tool.invoked(); len(calls) != k {
		t.Fatalf("expected %d invocations, got %v", k, calls)
	}
	counts, err := f.store.WriteStatusCounts(context.Background())
	if err != nil {
		t.Fatalf("WriteStatusCounts: %v", err)
	}
	if counts[catalog.StatusSuccess] != k || counts[catalog.StatusNone] != len(names)-k {
		t.Fatalf("expected exactly %d persisted outcomes, got %v", k, counts)
	}
}

func TestForceRefreshIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.add(t, "a.jpg", fiveDirectives, true)
	f.add(t, "b.mov", `{"datetime":"2020-01-01T00:00:00Z"}`, true)
	f.add(t, "c.jpg", `{"people":["Alice"]}`, false)
	f.add(t, "d.jpg", `{}`, true)
	tool := &fakeTool{
		batch: func(path string) (exiftool.Result, error) {
			if strings.HasSuffix(path, ".mov") {
				return exiftool.Result{ExitCode: 1}, nil
			}
			return confirmed, nil
		},
		single: func(_ int, d exif.Directive) (exiftool.Result, error) {
			if d.Field == exif.FieldCreateDate {
				return exiftool.Result{}, nil
			}
			return exiftool.Result{ExitCode: 1}, nil
		},
	}

	snapshot := func() map[string]catalog.WriteStatus {
		out := map[string]catalog.WriteStatus{}
		for _, rec := range f.records(t, config.ModeForceRefresh) {
			out[rec.Path] = rec.WriteStatus
		}
		return out
	}

	_, first := runOnce(t, f, tool, config.ModeForceRefresh)
	firstStatuses := snapshot()
	_, second := runOnce(t, f, tool, config.ModeForceRefresh)
	secondStatuses := snapshot()

	if first.Counters != second.Counters {
		t.Fatalf("counters differ between runs: %+v vs %+v", first.Counters, second.Counters)
	}
	want := session.Counters{Success: 1, Partial: 1, Skipped: 2}
	if first.Counters != want {
		t.Fatalf("counters = %+v, want %+v", first.Counters, want)
	}
	for path, status := range firstStatuses {
		if secondStatuses[path] != status {
			t.Fatalf("%s: %q then %q", path, status, secondStatuses[path])
		}
	}
}

type flakyRecorder struct {
	inner writer.StatusRecorder
	fail  map[string]error
}

func (r *flakyRecorder) MarkWriteStatus(ctx context.Context, path string, status catalog.WriteStatus, detail string) error {
	if err, ok := r.fail[path]; ok {
		return err
	}
	return r.inner.MarkWriteStatus(ctx, path, status, detail)
}

func TestPersistenceFailureDoesNotStopRun(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "a.jpg", fiveDirectives, true)
	second := f.add(t, "b.jpg", fiveDirectives, true)
	recorder := &flakyRecorder{inner: f.store, fail: map[string]error{first: errors.New("database is locked")}}

	agg := session.NewAggregator(5)
	orch, err := writer.New(&fakeTool{}, recorder, writer.WithObserver(agg))
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}
	report, err := orch.Run(context.Background(), f.records(t, config.ModeNewOnly))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	counters := agg.Snapshot().Counters
	if report.Processed != 2 || counters.Success != 2 || counters.PersistFailures != 1 {
		t.Fatalf("unexpected report %+v counters %+v", report, counters)
	}
	if rec := testsupport.MustGet(t, f.store, first); rec.WriteStatus != catalog.StatusNone {
		t.Fatalf("failed persist must leave status untouched, got %q", rec.WriteStatus)
	}
	if rec := testsupport.MustGet(t, f.store, second); rec.WriteStatus != catalog.StatusSuccess {
		t.Fatalf("second record not persisted: %q", rec.WriteStatus)
	}
}

func TestUnavailableCatalogAbortsRun(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		f.add(t, name, fiveDirectives, true)
	}
	records := f.records(t, config.ModeNewOnly)
	if err := f.store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tool := &fakeTool{}
	orch, err := writer.New(tool, f.store)
	if err != nil {
		t.Fatalf("writer.New: %v", err)
	}
	report, err := orch.Run(context.Background(), records)
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if report.Processed != 1 || len(tool.invoked()) != 1 {
		t.Fatalf("run must stop after the first unreachable write: %+v", report)
	}
}

func TestWorkersProcessEveryRecord(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg"} {
		f.add(t, name, fiveDirectives, true)
	}
	tool := &fakeTool{}

	report, snap := runOnce(t, f, tool, config.ModeNewOnly, writer.WithWorkers(3))
	if report.Processed != 6 || snap.Counters.Success != 6 || len(snap.Recent) != 6 {
		t.Fatalf("unexpected report %+v snapshot %+v", report, snap.Counters)
	}
	if remaining := f.records(t, config.ModeNewOnly); len(remaining) != 0 {
		t.Fatalf("expected every record persisted, %d left", len(remaining))
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	f := newFixture(t)
	if _, err := writer.New(nil, f.store); err == nil {
		t.Fatal("expected error without tool")
	}
	if _, err := writer.New(&fakeTool{}, nil); err == nil {
		t.Fatal("expected error without recorder")
	}
}
