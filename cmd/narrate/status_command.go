package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"narrate/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List jobs and their pipeline position",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer closer()

			var filters []jobs.Status
			if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
				status, ok := jobs.ParseStatus(trimmed)
				if !ok {
					return fmt.Errorf("unknown status %q (expected pending, processing, completed, or failed)", trimmed)
				}
				filters = append(filters, status)
			}

			records, err := store.List(cmd.Context(), filters...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, job := range records {
				rows = append(rows, []string{
					shortID(job.ID),
					job.InputRef,
					string(job.Status),
					string(job.Step),
					fmt.Sprintf("%.0f%%", job.Progress),
					fmt.Sprintf("%d/%d", job.AnalyzedCount(), len(job.Units)),
					job.Message,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "INPUT", "STATUS", "STEP", "PROGRESS", "UNITS", "MESSAGE"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d pending, %d processing, %d completed, %d failed\n",
				stats[jobs.StatusPending], stats[jobs.StatusProcessing],
				stats[jobs.StatusCompleted], stats[jobs.StatusFailed])
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only list jobs with this status")
	return cmd
}

// shortID abbreviates UUIDs for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
