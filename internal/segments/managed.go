package segments

import (
	"context"
	"log/slog"
	"time"

	"narrate/internal/logging"
	"narrate/internal/poll"
	"narrate/internal/services"
)

// ManagedPlanner delegates segmentation to an asynchronous detection
// service, driving its status checks through the poller.
type ManagedPlanner struct {
	detector Detector
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewManagedPlanner wires a detector into the polling loop. interval and
// timeout bound the status checks; timeout zero means no stage deadline.
func NewManagedPlanner(detector Detector, interval, timeout time.Duration, logger *slog.Logger) *ManagedPlanner {
	return &ManagedPlanner{
		detector: detector,
		interval: interval,
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "segments"),
	}
}

// Plan starts the managed detection operation and waits for its result.
func (p *ManagedPlanner) Plan(ctx context.Context, input Input) ([]Unit, error) {
	if p.detector == nil {
		return nil, services.Wrap(services.ErrValidation, "segmentation", "plan", "detector not configured", nil)
	}

	handle, err := p.detector.Start(ctx, input)
	if err != nil {
		return nil, services.Wrap(services.ErrSegmentation, "segmentation", "start detection", "", err)
	}
	p.logger.Debug("detection started", logging.String("handle", handle), logging.String("input", input.Ref))

	var terminal DetectionStatus
	check := func(ctx context.Context) (poll.Status, error) {
		status, err := p.detector.CheckStatus(ctx, handle)
		if err != nil {
			return poll.Status{}, services.Wrap(services.ErrSegmentation, "segmentation", "check status", "", err)
		}
		if status.Failure != nil || status.FailureReason != "" {
			terminal = status
			return poll.Status{State: poll.StateFailed, Payload: status.FailureReason}, nil
		}
		if status.Done {
			terminal = status
			return poll.Status{State: poll.StateSucceeded, Payload: status.Progress}, nil
		}
		return poll.Status{State: poll.StatePending, Payload: status.Progress}, nil
	}

	result, err := poll.Wait(ctx, check, poll.Options{
		Interval: p.interval,
		Timeout:  p.timeout,
		OnProgress: func(payload string) {
			p.logger.Debug("detection progress", logging.String("payload", payload))
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Status.State == poll.StateFailed {
		if terminal.Failure != nil {
			return nil, services.Wrap(services.ErrSegmentation, "segmentation", "detection", "", terminal.Failure)
		}
		return nil, services.Wrap(services.ErrSegmentation, "segmentation", "detection", terminal.FailureReason, nil)
	}
	if len(terminal.Units) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "segmentation", "detection", "provider returned no units", nil)
	}

	p.logger.Info("detection complete",
		logging.Int("units", len(terminal.Units)),
		logging.Int("poll_attempts", result.Attempts),
	)
	return terminal.Units, nil
}
