package segments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"narrate/internal/services"
)

// LocalDetector runs detection in-process, exposing the asynchronous
// Detector contract over a synchronous planning function. It stands in
// when no remote detection service is configured, and gives the polling
// path a real implementation to drive.
type LocalDetector struct {
	plan func(context.Context, Input) ([]Unit, error)

	mu  sync.Mutex
	ops map[string]*localOp
}

type localOp struct {
	done    bool
	units   []Unit
	failure error
}

// NewLocalDetector wraps a planning function in the detector contract.
func NewLocalDetector(plan func(context.Context, Input) ([]Unit, error)) *LocalDetector {
	return &LocalDetector{
		plan: plan,
		ops:  make(map[string]*localOp),
	}
}

// Start launches detection in the background and returns its handle.
func (d *LocalDetector) Start(ctx context.Context, input Input) (string, error) {
	if d.plan == nil {
		return "", services.Wrap(services.ErrValidation, "segmentation", "start detection", "no planning function", nil)
	}
	handle := uuid.NewString()
	op := &localOp{}
	d.mu.Lock()
	d.ops[handle] = op
	d.mu.Unlock()

	go func() {
		units, err := d.plan(context.WithoutCancel(ctx), input)
		d.mu.Lock()
		defer d.mu.Unlock()
		op.done = true
		if err != nil {
			op.failure = err
			return
		}
		op.units = units
	}()
	return handle, nil
}

// CheckStatus reports the operation's current state.
func (d *LocalDetector) CheckStatus(ctx context.Context, handle string) (DetectionStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[handle]
	if !ok {
		return DetectionStatus{}, services.Wrap(services.ErrNotFound, "segmentation", "check status",
			fmt.Sprintf("unknown detection handle %q", handle), nil)
	}
	if !op.done {
		return DetectionStatus{Progress: "detecting"}, nil
	}
	delete(d.ops, handle)
	status := DetectionStatus{Done: true, Units: op.units}
	if op.failure != nil {
		status.Failure = op.failure
		status.FailureReason = op.failure.Error()
	}
	return status, nil
}
