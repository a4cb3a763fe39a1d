package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
	"mediakeep/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and stored write outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			con := newConsole(out)

			con.header("Readiness")
			if ctx.configPath != "" {
				con.line("Config", severityInfo, ctx.configPath)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			catalogReady := true
			for _, r := range results {
				sev := severityOK
				if !r.Passed {
					sev = severityError
				}
				if r.Name == "Catalog" {
					catalogReady = r.Passed
				}
				con.line(r.Name, sev, r.Detail)
			}
			if !catalogReady {
				return nil
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()
			counts, err := store.WriteStatusCounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("count outcomes: %w", err)
			}
			con.blank()
			con.header("Stored outcomes")
			fmt.Fprintln(out, renderOutcomeCounts(counts))
			if n := counts[catalog.StatusError] + counts[catalog.StatusPartial]; n > 0 {
				con.line("Attention", worstOutcome(counts),
					fmt.Sprintf("%d files incomplete; run write --mode %s", n, config.ModeRetryErrors))
			}
			return nil
		},
	}
}
