package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"narrate/internal/jobs"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job record or a view of its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer closer()

			job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(strings.TrimSpace(view)) {
			case "", "summary":
				return renderJobSummary(out, job)
			case "json":
				payload, err := json.MarshalIndent(job, "", "  ")
				if err != nil {
					return fmt.Errorf("encode job: %w", err)
				}
				fmt.Fprintln(out, string(payload))
				return nil
			case "narrative", "timestamped", "technical", "accessibility":
				if job.Result == nil {
					return fmt.Errorf("job %s has no description yet (status %s)", job.ID, job.Status)
				}
				switch view {
				case "narrative":
					fmt.Fprintln(out, job.Result.Narrative)
				case "timestamped":
					fmt.Fprintln(out, job.Result.Timestamped)
				case "technical":
					fmt.Fprintln(out, job.Result.Technical)
				case "accessibility":
					fmt.Fprintln(out, job.Result.Accessibility)
				}
				return nil
			default:
				return fmt.Errorf("unknown view %q (expected summary, narrative, timestamped, technical, accessibility, or json)", view)
			}
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "What to print: summary, narrative, timestamped, technical, accessibility, or json")
	return cmd
}

func renderJobSummary(out io.Writer, job *jobs.Job) error {
	fmt.Fprintf(out, "Job:      %s\n", job.ID)
	fmt.Fprintf(out, "Input:    %s\n", job.InputRef)
	fmt.Fprintf(out, "Status:   %s (%s, %.0f%%)\n", job.Status, job.Step, job.Progress)
	fmt.Fprintf(out, "Units:    %d planned, %d analyzed\n", len(job.Units), job.AnalyzedCount())
	fmt.Fprintf(out, "Updated:  %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))
	if job.Error != nil {
		fmt.Fprintf(out, "Error:    [%s] %s\n", job.Error.Code, job.Error.Message)
		if job.Error.Detail != "" {
			fmt.Fprintf(out, "Detail:   %s\n", job.Error.Detail)
		}
	}
	if job.Result != nil {
		meta := job.Result.Metadata
		fmt.Fprintf(out, "Words:    %d in %d sentences\n", meta.WordCount, meta.SentenceCount)
		fmt.Fprintf(out, "Quality:  %.2f average confidence, method %s\n", meta.AverageConfidence, meta.Method)
		if meta.Language != "" {
			fmt.Fprintf(out, "Language: %s\n", meta.Language)
		}
		fmt.Fprintf(out, "Cost:     %.4f\n", meta.TotalProviderCost)
		fmt.Fprintf(out, "Moments:  %d key moments, %d highlights, %d chapters\n",
			len(job.Result.KeyMoments), len(job.Result.Highlights), len(job.Result.Chapters))
	}
	return nil
}
