package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"narrate/internal/batch"
	"narrate/internal/jobs"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		concurrency int
		failFast    bool
		strategy    string
		duration    float64
	)

	cmd := &cobra.Command{
		Use:   "batch <input-ref>...",
		Short: "Run the description pipeline for many inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, services, closer, err := ctx.newBatchController()
			if err != nil {
				return err
			}
			defer closer()

			if concurrency == 0 {
				concurrency = services.cfg.Batch.Concurrency
			}
			if !cmd.Flags().Changed("fail-fast") {
				failFast = services.cfg.Batch.FailFast
			}
			if strategy == "" {
				strategy = services.cfg.Segmentation.Strategy
			}

			report, err := controller.Run(cmd.Context(), args, batch.Options{
				Concurrency: concurrency,
				FailFast:    failFast,
				Job: jobs.Options{
					Strategy: jobs.Strategy(strategy),
					FailFast: failFast,
					Duration: duration,
				},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(report.Items))
			for _, item := range report.Items {
				rows = append(rows, []string{
					item.InputRef,
					shortID(item.JobID),
					string(item.Status),
					string(item.Code),
					formatDuration(item.Duration),
					item.Message,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"INPUT", "JOB", "STATUS", "CODE", "TIME", "MESSAGE"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))

			fmt.Fprintf(out, "%d succeeded, %d failed, %d skipped in %s\n",
				report.Succeeded, report.Failed, report.Skipped, formatDuration(report.Wall))
			if report.Succeeded+report.Failed > 0 {
				fmt.Fprintf(out, "item time: min %s, median %s, avg %s, max %s\n",
					formatDuration(report.Durations.Min),
					formatDuration(report.Durations.Median),
					formatDuration(report.Durations.Average),
					formatDuration(report.Durations.Max),
				)
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", report.Failed, len(report.Items))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Worker count (1-10); defaults to configuration")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop scheduling new inputs after the first failure")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Segmentation strategy for all inputs")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Input duration in seconds applied to every input")
	return cmd
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
