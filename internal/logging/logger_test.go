package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediakeep/internal/logging"
	"mediakeep/internal/services"
)

func newFileLogger(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "run.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := read(); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRecordPath(context.Background(), "/photos/2019/beach.jpg")
	ctx = services.WithRunID(ctx, "run-1")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "writer")).Info("record written", logging.String(logging.FieldOutcome, "success"))

	content := read()
	for _, fragment := range []string{"writer · beach.jpg: record written", "outcome=success", "run_id=run-1", "path=/photos/2019/beach.jpg"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
}

func TestJSONLoggerUsesStandardKeys(t *testing.T) {
	logPath, read := newFileLogger(t)
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "metadata skipped", "invalid_metadata", logging.String(logging.FieldPath, "/a.jpg"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %s to be injected, got %v", key, entry)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		component, path, worker, want string
	}{
		{"writer", "/a/b.jpg", "", "writer · b.jpg"},
		{"writer", "/a/b.jpg", "2", "writer · w2 · b.jpg"},
		{"", "", "", ""},
		{"catalog", "", "0", "catalog"},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.component, tc.path, tc.worker); got != tc.want {
			t.Fatalf("FormatSubject(%q,%q,%q) = %q, want %q", tc.component, tc.path, tc.worker, got, tc.want)
		}
	}
}

func TestCleanupOldLogsRemovesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "mediakeep-old.log")
	current := filepath.Join(dir, "mediakeep-current.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -40)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{
		Dir:     dir,
		Pattern: logging.RunLogPattern,
		Exclude: []string{current},
	})
	if removed != 1 {
		t.Fatalf("expected one log removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, got %v", err)
	}
	for _, path := range []string{current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: t.TempDir()}); removed != 0 {
		t.Fatalf("expected no pruning when retention disabled, got %d", removed)
	}
}
