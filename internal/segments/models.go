package segments

import "fmt"

// Unit is one independently analyzable slice of input. Units are produced
// once by a planner and immutable thereafter.
type Unit struct {
	ID          string  `json:"id"`
	StartOffset float64 `json:"start_offset"`
	EndOffset   float64 `json:"end_offset"`
	Confidence  float64 `json:"confidence"`
	SizeBytes   int64   `json:"size_bytes,omitempty"`
}

// Duration returns the unit's span in offset units.
func (u Unit) Duration() float64 {
	return u.EndOffset - u.StartOffset
}

// Label renders the unit's offsets for human-readable output.
func (u Unit) Label() string {
	return fmt.Sprintf("%.1fs-%.1fs", u.StartOffset, u.EndOffset)
}

// Input describes the media item handed to a planner.
type Input struct {
	// Ref identifies the content in storage (path or bucket/object key).
	Ref string
	// Duration is the media length in seconds; zero for images and raw bytes.
	Duration float64
	// SizeBytes is the content size, used for size-based chunking.
	SizeBytes int64
	// BoundaryHints are optional content boundary offsets (seconds) that
	// heuristic chunking may align to.
	BoundaryHints []float64
}

// TotalSpan reports the extent a plan must cover: duration in seconds when
// known, else the byte size promoted to offset units.
func (in Input) TotalSpan() float64 {
	if in.Duration > 0 {
		return in.Duration
	}
	return float64(in.SizeBytes)
}
