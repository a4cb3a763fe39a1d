package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediakeep/internal/catalog"
	"mediakeep/internal/writerun"
)

func TestConsoleLineNoColor(t *testing.T) {
	var buf bytes.Buffer
	con := newConsole(&buf)
	con.line("Catalog", severityError, "unreachable")
	want := fmt.Sprintf("  %-20s %s\n", "Catalog:", "[ERROR] unreachable")
	if buf.String() != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestConsoleLineWithColor(t *testing.T) {
	var buf bytes.Buffer
	con := &console{out: &buf, color: true}
	con.line("Result", severityOK, "")
	got := strings.TrimSuffix(buf.String(), "\n")
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
	if !strings.Contains(got, "[OK]") {
		t.Fatalf("expected OK label, got %q", got)
	}
}

func TestWorstOutcome(t *testing.T) {
	cases := []struct {
		counts map[catalog.WriteStatus]int
		want   severity
	}{
		{map[catalog.WriteStatus]int{}, severityInfo},
		{map[catalog.WriteStatus]int{catalog.StatusSuccess: 3, catalog.StatusPending: 2}, severityOK},
		{map[catalog.WriteStatus]int{catalog.StatusSuccess: 3, catalog.StatusSkipped: 1}, severityWarn},
		{map[catalog.WriteStatus]int{catalog.StatusPartial: 1, catalog.StatusError: 1}, severityError},
		{map[catalog.WriteStatus]int{catalog.StatusError: 0, catalog.StatusSuccess: 1}, severityOK},
	}
	for _, tc := range cases {
		if got := worstOutcome(tc.counts); got != tc.want {
			t.Fatalf("worstOutcome(%v) = %d, want %d", tc.counts, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), exitFailure},
		{fmt.Errorf("run: %w", context.Canceled), exitInterrupted},
		{fmt.Errorf("%w: /data/catalog.db.lock", writerun.ErrRunInProgress), exitLocked},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestExecuteReportsErrors(t *testing.T) {
	var stderr bytes.Buffer
	if code := execute([]string{"no-such-command"}, &stderr); code != exitFailure {
		t.Fatalf("expected exit %d, got %d", exitFailure, code)
	}
	if !strings.HasPrefix(stderr.String(), "mediakeep: ") {
		t.Fatalf("expected prefixed error, got %q", stderr.String())
	}
}
