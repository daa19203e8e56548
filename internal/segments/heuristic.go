package segments

import (
	"context"
	"fmt"
	"sort"

	"narrate/internal/services"
)

// HeuristicOptions tunes local chunking.
type HeuristicOptions struct {
	// MaxUnitSpan caps each unit's span in offset units (seconds for video,
	// bytes promoted to offsets for chunked content).
	MaxUnitSpan float64
	// Overlap extends each unit backwards into its predecessor.
	Overlap float64
	// AlignToBoundaries snaps unit ends to the nearest boundary hint that
	// falls inside the unit's span.
	AlignToBoundaries bool
}

// DefaultHeuristicOptions mirror the configuration defaults.
func DefaultHeuristicOptions() HeuristicOptions {
	return HeuristicOptions{MaxUnitSpan: 30}
}

// HeuristicPlanner chunks input locally by fixed span without consulting a
// remote service.
type HeuristicPlanner struct {
	opts HeuristicOptions
}

// NewHeuristicPlanner builds a local chunking planner.
func NewHeuristicPlanner(opts HeuristicOptions) *HeuristicPlanner {
	if opts.MaxUnitSpan <= 0 {
		opts.MaxUnitSpan = DefaultHeuristicOptions().MaxUnitSpan
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	if opts.Overlap >= opts.MaxUnitSpan {
		opts.Overlap = opts.MaxUnitSpan / 2
	}
	return &HeuristicPlanner{opts: opts}
}

// Plan splits the input into contiguous units of at most MaxUnitSpan,
// optionally overlapping and aligned to boundary hints. Zero-length input
// fails with the empty input marker.
func (p *HeuristicPlanner) Plan(ctx context.Context, input Input) ([]Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := input.TotalSpan()
	if total <= 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "segmentation", "chunk", "input has zero length", nil)
	}

	hints := append([]float64(nil), input.BoundaryHints...)
	sort.Float64s(hints)

	var units []Unit
	start := 0.0
	for start < total {
		end := start + p.opts.MaxUnitSpan
		if end > total {
			end = total
		}
		if p.opts.AlignToBoundaries {
			if aligned, ok := alignEnd(hints, start, end); ok {
				end = aligned
			}
		}

		unitStart := start - p.opts.Overlap
		if unitStart < 0 {
			unitStart = 0
		}
		units = append(units, Unit{
			ID:          fmt.Sprintf("unit-%03d", len(units)+1),
			StartOffset: unitStart,
			EndOffset:   end,
			Confidence:  1,
			SizeBytes:   chunkBytes(input, unitStart, end, total),
		})
		start = end
	}

	if len(units) == 0 {
		return nil, services.Wrap(services.ErrEmptyInput, "segmentation", "chunk", "chunking produced no units", nil)
	}
	return units, nil
}

// alignEnd picks the largest boundary hint inside (start, end]; chunk ends
// snap backwards to content boundaries, never forwards past the span cap.
func alignEnd(hints []float64, start, end float64) (float64, bool) {
	aligned := 0.0
	found := false
	for _, hint := range hints {
		if hint <= start {
			continue
		}
		if hint > end {
			break
		}
		aligned = hint
		found = true
	}
	return aligned, found
}

func chunkBytes(input Input, start, end, total float64) int64 {
	if input.SizeBytes <= 0 || total <= 0 {
		return 0
	}
	return int64(float64(input.SizeBytes) * (end - start) / total)
}
