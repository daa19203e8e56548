package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"narrate/internal/jobs"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var (
		strategy   string
		failFast   bool
		duration   float64
		sizeBytes  int64
		boundaries []float64
		audio      bool
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "describe <input-ref>",
		Short: "Run the description pipeline for one input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputRef := strings.TrimSpace(args[0])

			services, closer, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer closer()

			cmdCtx := cmd.Context()
			if store, err := ctx.newContentStore(services.logger); err != nil {
				return err
			} else if store != nil {
				info, err := store.Stat(cmdCtx, inputRef)
				if err != nil {
					return fmt.Errorf("verify input: %w", err)
				}
				if sizeBytes == 0 {
					sizeBytes = info.SizeBytes
				}
			}

			if strategy == "" {
				strategy = services.cfg.Segmentation.Strategy
			}
			opts := jobs.Options{
				Strategy:      jobs.Strategy(strategy),
				FailFast:      failFast,
				Duration:      duration,
				SizeBytes:     sizeBytes,
				BoundaryHints: boundaries,
			}
			job, err := services.orch.Create(cmdCtx, inputRef, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s created for %s\n", job.ID, inputRef)

			lastMessage := ""
			for !job.IsTerminal() {
				if err := cmdCtx.Err(); err != nil {
					return err
				}
				job, err = services.orch.Advance(cmdCtx, job.ID)
				if err != nil {
					return err
				}
				if job.Message != lastMessage {
					fmt.Fprintf(out, "  [%3.0f%%] %s\n", job.Progress, job.Message)
					lastMessage = job.Message
				}
			}

			if job.Status == jobs.StatusFailed {
				if job.Error != nil {
					return fmt.Errorf("job %s failed (%s): %s", job.ID, job.Error.Code, job.Error.Message)
				}
				return fmt.Errorf("job %s failed", job.ID)
			}

			target := outputDir
			if target == "" {
				target = services.cfg.Paths.OutputDir
			}
			resultPath, err := writeResult(target, job)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Description written to %s\n", resultPath)

			if audio {
				speech, err := ctx.newSpeech(services.logger)
				if err != nil {
					return fmt.Errorf("configure speech renderer: %w", err)
				}
				payload, err := speech.Synthesize(cmdCtx, job.Result.Accessibility)
				if err != nil {
					return fmt.Errorf("render audio: %w", err)
				}
				audioPath := filepath.Join(target, job.ID+".mp3")
				if err := os.WriteFile(audioPath, payload, 0o644); err != nil {
					return fmt.Errorf("write audio: %w", err)
				}
				fmt.Fprintf(out, "Audio narration written to %s\n", audioPath)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, job.Result.Narrative)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Segmentation strategy (heuristic or managed); defaults to configuration")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Fail the job on the first exhausted unit instead of degrading")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Input duration in seconds, for planning")
	cmd.Flags().Int64Var(&sizeBytes, "size", 0, "Input size in bytes, for planning")
	cmd.Flags().Float64SliceVar(&boundaries, "boundary", nil, "Content boundary hint in seconds (repeatable)")
	cmd.Flags().BoolVar(&audio, "audio", false, "Render the description as spoken audio")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory; defaults to paths.output_dir")
	return cmd
}

// writeResult persists the full job record as indented JSON next to any
// rendered artifacts.
func writeResult(dir string, job *jobs.Job) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	payload, err := json.MarshalIndent(struct {
		ID       string      `json:"id"`
		InputRef string      `json:"input_ref"`
		Result   interface{} `json:"result"`
	}{job.ID, job.InputRef, job.Result}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	path := filepath.Join(dir, job.ID+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}
