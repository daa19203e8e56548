package poll_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"narrate/internal/poll"
	"narrate/internal/services"
)

func TestWaitReportsEveryPendingPayload(t *testing.T) {
	const pendingChecks = 4
	calls := 0
	check := func(ctx context.Context) (poll.Status, error) {
		calls++
		if calls <= pendingChecks {
			return poll.Status{State: poll.StatePending, Payload: fmt.Sprintf("step %d", calls)}, nil
		}
		return poll.Status{State: poll.StateSucceeded, Payload: "done"}, nil
	}

	var progress []string
	result, err := poll.Wait(context.Background(), check, poll.Options{
		Interval:   time.Millisecond,
		OnProgress: func(payload string) { progress = append(progress, payload) },
	})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.Attempts != pendingChecks+1 {
		t.Fatalf("expected %d attempts, got %d", pendingChecks+1, result.Attempts)
	}
	if calls != pendingChecks+1 {
		t.Fatalf("expected no checks after terminal state, got %d calls", calls)
	}
	if len(progress) != pendingChecks {
		t.Fatalf("expected %d progress callbacks, got %d", pendingChecks, len(progress))
	}
	for i, payload := range progress {
		if payload != fmt.Sprintf("step %d", i+1) {
			t.Fatalf("progress out of order: %v", progress)
		}
	}
	if result.Status.State != poll.StateSucceeded || result.Status.Payload != "done" {
		t.Fatalf("unexpected terminal status: %+v", result.Status)
	}
}

func TestWaitTimesOutWithLastPayload(t *testing.T) {
	check := func(ctx context.Context) (poll.Status, error) {
		return poll.Status{State: poll.StatePending, Payload: "still working"}, nil
	}

	result, err := poll.Wait(context.Background(), check, poll.Options{
		Interval: 5 * time.Millisecond,
		Timeout:  20 * time.Millisecond,
	})
	if !errors.Is(err, services.ErrPollTimeout) {
		t.Fatalf("expected poll timeout, got %v", err)
	}
	if result.LastPayload != "still working" {
		t.Fatalf("expected last payload preserved, got %q", result.LastPayload)
	}
	if result.Attempts == 0 {
		t.Fatal("expected at least one attempt before timeout")
	}
}

func TestWaitStopsPromptlyOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	check := func(ctx context.Context) (poll.Status, error) {
		calls++
		cancel()
		return poll.Status{State: poll.StatePending, Payload: "first"}, nil
	}

	start := time.Now()
	_, err := poll.Wait(ctx, check, poll.Options{Interval: time.Hour})
	if !errors.Is(err, services.ErrPollCancel) {
		t.Fatalf("expected poll cancelled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected check never invoked after cancellation, got %d calls", calls)
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancellation was not prompt")
	}
}

func TestWaitReturnsFailedTerminalState(t *testing.T) {
	check := func(ctx context.Context) (poll.Status, error) {
		return poll.Status{State: poll.StateFailed, Payload: "provider rejected input"}, nil
	}

	result, err := poll.Wait(context.Background(), check, poll.Options{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.Status.State != poll.StateFailed {
		t.Fatalf("expected failed terminal state, got %+v", result.Status)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected single attempt, got %d", result.Attempts)
	}
}

func TestWaitPropagatesCheckErrors(t *testing.T) {
	boom := errors.New("boom")
	check := func(ctx context.Context) (poll.Status, error) {
		return poll.Status{}, boom
	}
	if _, err := poll.Wait(context.Background(), check, poll.Options{Interval: time.Millisecond}); !errors.Is(err, boom) {
		t.Fatalf("expected check error propagated, got %v", err)
	}
}

func TestWaitRequiresCheckFunc(t *testing.T) {
	if _, err := poll.Wait(context.Background(), nil, poll.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
