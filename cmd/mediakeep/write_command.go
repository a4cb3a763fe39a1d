package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
	"mediakeep/internal/writerun"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var workers int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write catalog metadata into media files",
		Long: fmt.Sprintf(`Write catalog metadata into media files with exiftool.

Modes select which records are processed:
  %s       never attempted or reset to pending (default)
  %s   previous error or partial outcomes
  %s  every record with valid metadata

Ctrl-C finishes the file in progress and stops.`, config.ModeNewOnly, config.ModeRetryErrors, config.ModeForceRefresh),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, runErr := writerun.Run(cmd.Context(), cfg, writerun.Options{
				Mode:          mode,
				Workers:       workers,
				DryRun:        dryRun,
				HandleSignals: true,
			})
			out := cmd.OutOrStdout()
			if report != nil {
				if report.DryRun {
					printDryRun(out, report)
				} else {
					printRunSummary(newConsole(out), report)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Processing mode (new_only, retry_errors, force_refresh)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Files processed at once (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show planned exiftool directives without writing")
	return cmd
}

func printRunSummary(con *console, report *writerun.Report) {
	con.header("Write run")
	con.line("Run", severityInfo, report.RunID)
	con.line("Mode", severityInfo, report.Mode)
	con.line("Processed", severityInfo,
		fmt.Sprintf("%d of %d in %s", report.Processed, report.Selected, report.Elapsed.Round(time.Millisecond)))
	if report.Canceled {
		con.line("Canceled", severityWarn, fmt.Sprintf("%d files not attempted", report.Selected-report.Processed))
	}
	if report.LogPath != "" {
		con.line("Log", severityInfo, report.LogPath)
	}
	if n := report.Session.Counters.PersistFailures; n > 0 {
		con.line("Catalog", severityError, fmt.Sprintf("%d outcomes not stored; rerun with force_refresh", n))
	}

	counters := report.Session.Counters
	counts := map[catalog.WriteStatus]int{
		catalog.StatusSuccess: counters.Success,
		catalog.StatusPartial: counters.Partial,
		catalog.StatusError:   counters.Error,
		catalog.StatusSkipped: counters.Skipped,
	}
	con.line("Result", worstOutcome(counts), fmt.Sprintf("%d of %d written in full", counters.Success, counters.Total()))
	con.blank()
	fmt.Fprintln(con.out, renderOutcomeCounts(counts))

	if len(report.Session.Recent) == 0 {
		return
	}
	con.blank()
	con.header("Recent activity")
	rows := make([][]string, 0, len(report.Session.Recent))
	for _, entry := range report.Session.Recent {
		rows = append(rows, []string{
			entry.Time.Format(time.TimeOnly),
			filepath.Base(entry.Path),
			entry.Status.Label(),
			entry.Summary,
		})
	}
	fmt.Fprintln(con.out, renderTable([]string{"Time", "File", "Outcome", "Summary"}, rows, nil))
}

func printDryRun(out io.Writer, report *writerun.Report) {
	fmt.Fprintf(out, "Dry run (%s): %d files selected\n", report.Mode, report.Selected)
	for _, plan := range report.Plans {
		fmt.Fprintf(out, "\n%s [%s]\n", plan.Path, plan.Kind)
		for _, warning := range plan.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", warning)
		}
		if plan.SkipReason != "" {
			fmt.Fprintf(out, "  skip: %s\n", plan.SkipReason)
			continue
		}
		for _, d := range plan.Directives {
			fmt.Fprintf(out, "  %s\n", strconv.Quote(d.Arg))
		}
	}
	if report.Canceled {
		fmt.Fprintln(out, "\nDry run canceled")
	}
	fmt.Fprintf(out, "\n%d files planned\n", len(report.Plans))
}
