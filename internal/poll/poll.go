package poll

import (
	"context"
	"fmt"
	"time"

	"narrate/internal/services"
)

// State is the tri-state outcome of one status check.
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

// Status is the result of a single status check against a slow operation.
type Status struct {
	State   State
	Payload string
}

// CheckFunc queries the remote operation once. Errors returned by the check
// are terminal; transient conditions should be reported as StatePending.
type CheckFunc func(context.Context) (Status, error)

// Options controls the polling loop.
type Options struct {
	// Interval is the delay between status checks.
	Interval time.Duration
	// Timeout bounds the total wait. Zero means no deadline beyond ctx.
	Timeout time.Duration
	// OnProgress receives the payload of every non-terminal check, in
	// chronological order.
	OnProgress func(payload string)
}

// Result reports the terminal status and how many checks were issued.
type Result struct {
	Status   Status
	Attempts int
	// LastPayload is the most recent payload observed, terminal or not.
	LastPayload string
}

const defaultInterval = 2 * time.Second

// Wait repeatedly invokes check until a terminal state, the timeout, or
// cancellation. On timeout it fails with the poll timeout marker carrying
// the last observed payload; on cancellation it fails with the poll
// cancelled marker and never invokes check again. The returned Result is
// valid even when err is non-nil.
func Wait(ctx context.Context, check CheckFunc, opts Options) (Result, error) {
	if check == nil {
		return Result{}, services.Wrap(services.ErrValidation, "poll", "wait", "check function required", nil)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	result := Result{}
	for {
		if err := ctx.Err(); err != nil {
			return result, cancelled(result, err)
		}

		status, err := check(ctx)
		result.Attempts++
		if err != nil {
			return result, err
		}
		result.Status = status
		if status.Payload != "" {
			result.LastPayload = status.Payload
		}

		switch status.State {
		case StateSucceeded, StateFailed:
			return result, nil
		}

		if opts.OnProgress != nil {
			opts.OnProgress(status.Payload)
		}

		wait := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return result, cancelled(result, ctx.Err())
		case <-deadline:
			wait.Stop()
			return result, services.Wrap(
				services.ErrPollTimeout,
				"poll", "wait",
				fmt.Sprintf("no terminal state after %d attempts (last: %s)", result.Attempts, lastOrNone(result)),
				nil,
			)
		case <-wait.C:
		}
	}
}

func cancelled(result Result, cause error) error {
	return services.Wrap(
		services.ErrPollCancel,
		"poll", "wait",
		fmt.Sprintf("cancelled after %d attempts (last: %s)", result.Attempts, lastOrNone(result)),
		cause,
	)
}

func lastOrNone(result Result) string {
	if result.LastPayload == "" {
		return "<none>"
	}
	return result.LastPayload
}
