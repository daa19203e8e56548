package batch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"narrate/internal/jobs"
	"narrate/internal/logging"
	"narrate/internal/services"
)

const (
	defaultConcurrency = 3
	maxConcurrency     = 10
)

// Runner drives a single input through the pipeline. Satisfied by the
// pipeline orchestrator.
type Runner interface {
	Create(ctx context.Context, inputRef string, opts jobs.Options) (*jobs.Job, error)
	RunToCompletion(ctx context.Context, id string) (*jobs.Job, error)
}

// Options control batch execution.
type Options struct {
	// Concurrency is the worker count, clamped to [1, 10]. Zero means the
	// default of 3.
	Concurrency int
	// FailFast stops scheduling new items after the first failure. Items
	// already in flight run to completion; unscheduled items are skipped.
	FailFast bool
	// Job options applied to every item.
	Job jobs.Options
}

// ItemStatus records an item's terminal disposition.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
	ItemSkipped   ItemStatus = "skipped"
)

// ItemResult is the per-input outcome, in submission order.
type ItemResult struct {
	InputRef string
	JobID    string
	Status   ItemStatus
	Code     services.Code
	Message  string
	Duration time.Duration
}

// DurationStats aggregates wall-clock durations of executed items.
// Skipped items contribute nothing.
type DurationStats struct {
	Min     time.Duration
	Max     time.Duration
	Median  time.Duration
	Average time.Duration
}

// Report summarizes a finished batch. Succeeded, Failed, and Skipped
// always sum to the number of submitted items.
type Report struct {
	Items     []ItemResult
	Succeeded int
	Failed    int
	Skipped   int
	Wall      time.Duration
	Durations DurationStats
}

// Controller fans batch items out over a bounded worker pool.
type Controller struct {
	runner Runner
	logger *slog.Logger
}

// New builds a batch controller around the given runner.
func New(runner Runner, logger *slog.Logger) *Controller {
	return &Controller{
		runner: runner,
		logger: logging.NewComponentLogger(logger, "batch"),
	}
}

// Run processes every input and returns the aggregate report. Item
// failures are captured in the report, never returned as an error; the
// error return covers only an empty submission or a cancelled context.
func (c *Controller) Run(ctx context.Context, inputRefs []string, opts Options) (*Report, error) {
	if len(inputRefs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "batch", "run", "no inputs submitted", nil)
	}
	workers := clampConcurrency(opts.Concurrency)
	c.logger.Info("batch started",
		logging.Int("items", len(inputRefs)),
		logging.Int("concurrency", workers),
	)

	started := time.Now()
	results := make([]ItemResult, len(inputRefs))
	indexes := make(chan int)
	var stop atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if stop.Load() || ctx.Err() != nil {
					results[i] = ItemResult{InputRef: inputRefs[i], Status: ItemSkipped, Message: "not scheduled"}
					continue
				}
				results[i] = c.runItem(ctx, inputRefs[i], opts.Job)
				if results[i].Status == ItemFailed && opts.FailFast {
					stop.Store(true)
				}
			}
		}()
	}
	for i := range inputRefs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	report := summarize(results, time.Since(started))
	c.logger.Info("batch finished",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Duration("wall", report.Wall),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (c *Controller) runItem(ctx context.Context, inputRef string, jobOpts jobs.Options) ItemResult {
	started := time.Now()
	job, err := c.runner.Create(ctx, inputRef, jobOpts)
	if err != nil {
		details := services.Details(err)
		return ItemResult{
			InputRef: inputRef,
			Status:   ItemFailed,
			Code:     details.Code,
			Message:  details.Message,
			Duration: time.Since(started),
		}
	}

	finished, err := c.runner.RunToCompletion(ctx, job.ID)
	elapsed := time.Since(started)
	if err != nil {
		details := services.Details(err)
		return ItemResult{
			InputRef: inputRef,
			JobID:    job.ID,
			Status:   ItemFailed,
			Code:     details.Code,
			Message:  details.Message,
			Duration: elapsed,
		}
	}
	if finished.Status == jobs.StatusFailed {
		result := ItemResult{
			InputRef: inputRef,
			JobID:    job.ID,
			Status:   ItemFailed,
			Duration: elapsed,
		}
		if finished.Error != nil {
			result.Code = finished.Error.Code
			result.Message = finished.Error.Message
		}
		return result
	}
	return ItemResult{
		InputRef: inputRef,
		JobID:    job.ID,
		Status:   ItemSucceeded,
		Duration: elapsed,
	}
}

func summarize(results []ItemResult, wall time.Duration) *Report {
	report := &Report{Items: results, Wall: wall}
	executed := make([]time.Duration, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case ItemSucceeded:
			report.Succeeded++
			executed = append(executed, r.Duration)
		case ItemFailed:
			report.Failed++
			executed = append(executed, r.Duration)
		case ItemSkipped:
			report.Skipped++
		}
	}
	report.Durations = computeStats(executed)
	return report
}

func computeStats(durations []time.Duration) DurationStats {
	if len(durations) == 0 {
		return DurationStats{}
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	stats := DurationStats{
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Average: total / time.Duration(len(sorted)),
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		stats.Median = sorted[mid]
	} else {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return stats
}

func clampConcurrency(n int) int {
	switch {
	case n <= 0:
		return defaultConcurrency
	case n > maxConcurrency:
		return maxConcurrency
	default:
		return n
	}
}
