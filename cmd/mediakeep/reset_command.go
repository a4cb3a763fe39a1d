package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediakeep/internal/catalog"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Return records to pending so the next new_only run retries them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			parsed := make([]catalog.WriteStatus, 0, len(statuses))
			for _, value := range statuses {
				status, err := catalog.ParseWriteStatus(value)
				if err != nil {
					return err
				}
				parsed = append(parsed, status)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			changed, err := store.ResetWriteStatus(cmd.Context(), parsed...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d records to pending\n", changed)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", []string{"error", "partial"}, "Stored statuses to reset")
	return cmd
}
