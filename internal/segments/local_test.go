package segments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
)

func TestLocalDetectorCompletesDetection(t *testing.T) {
	planner := segments.NewHeuristicPlanner(segments.HeuristicOptions{MaxUnitSpan: 30})
	detector := segments.NewLocalDetector(planner.Plan)
	managed := segments.NewManagedPlanner(detector, time.Millisecond, time.Second, logging.NewNop())

	units, err := managed.Plan(context.Background(), segments.Input{Ref: "videos/cooking.mp4", Duration: 95})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(units) != 4 {
		t.Fatalf("expected 4 units for 95s at 30s span, got %d", len(units))
	}
}

func TestLocalDetectorPropagatesPlanningFailure(t *testing.T) {
	detector := segments.NewLocalDetector(func(ctx context.Context, input segments.Input) ([]segments.Unit, error) {
		return nil, errors.New("codec unsupported")
	})
	managed := segments.NewManagedPlanner(detector, time.Millisecond, time.Second, logging.NewNop())

	_, err := managed.Plan(context.Background(), segments.Input{Ref: "videos/odd.bin", Duration: 10})
	if !errors.Is(err, services.ErrSegmentation) {
		t.Fatalf("expected segmentation error, got %v", err)
	}
}

func TestLocalDetectorPreservesFailureClassification(t *testing.T) {
	planner := segments.NewHeuristicPlanner(segments.HeuristicOptions{MaxUnitSpan: 30})
	detector := segments.NewLocalDetector(planner.Plan)
	managed := segments.NewManagedPlanner(detector, time.Millisecond, time.Second, logging.NewNop())

	_, err := managed.Plan(context.Background(), segments.Input{Ref: "videos/blank.mp4"})
	if !errors.Is(err, services.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if code := services.Details(err).Code; code != services.CodeEmptyInput {
		t.Fatalf("expected empty_input code, got %s", code)
	}
}

func TestLocalDetectorUnknownHandle(t *testing.T) {
	detector := segments.NewLocalDetector(func(ctx context.Context, input segments.Input) ([]segments.Unit, error) {
		return nil, nil
	})
	_, err := detector.CheckStatus(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
