package segments

import "context"

// Planner turns one input into an ordered sequence of units covering the
// whole input with no gaps. Concrete planners are selected by configuration
// at job creation, never by runtime type inspection.
type Planner interface {
	Plan(ctx context.Context, input Input) ([]Unit, error)
}

// Detector is the managed segmentation provider contract. Start launches a
// detection operation; CheckStatus reports its progress until terminal.
type Detector interface {
	Start(ctx context.Context, input Input) (handle string, err error)
	CheckStatus(ctx context.Context, handle string) (DetectionStatus, error)
}

// DetectionStatus is one observation of a managed detection operation.
type DetectionStatus struct {
	// Done is true once the operation reached a terminal state.
	Done bool
	// Units carries the detected units when Done and FailureReason is empty.
	Units []Unit
	// FailureReason is the provider's message for a failed operation.
	FailureReason string
	// Failure carries the underlying error when the detector runs
	// in-process; remote detectors leave it nil and report only the
	// reason string.
	Failure error
	// Progress is a human-readable payload for intermediate observations.
	Progress string
}
