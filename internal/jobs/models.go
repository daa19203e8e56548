package jobs

import (
	"strings"
	"time"

	"narrate/internal/analysis"
	"narrate/internal/segments"
	"narrate/internal/services"
	"narrate/internal/synthesis"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Step is the pipeline position of a processing job. Steps are ordered and
// monotonic while processing.
type Step string

const (
	StepUpload       Step = "upload"
	StepSegmentation Step = "segmentation"
	StepAnalysis     Step = "analysis"
	StepSynthesis    Step = "synthesis"
	StepCompleted    Step = "completed"
)

var stepOrder = []Step{StepUpload, StepSegmentation, StepAnalysis, StepSynthesis, StepCompleted}

// StepIndex returns the ordinal of a step, or -1 for unknown values.
func StepIndex(step Step) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return normalized, true
	}
	return "", false
}

// Failure is the machine-readable error recorded on a failed job.
type Failure struct {
	Code    services.Code `json:"code"`
	Message string        `json:"message"`
	Detail  string        `json:"detail,omitempty"`
}

// Strategy selects the segmentation planner at job creation.
type Strategy string

const (
	StrategyManaged   Strategy = "managed"
	StrategyHeuristic Strategy = "heuristic"
)

// Options captures per-job policy fixed at creation time.
type Options struct {
	Strategy Strategy `json:"strategy"`
	FailFast bool     `json:"fail_fast,omitempty"`
	// Duration and SizeBytes describe the input for planning.
	Duration  float64 `json:"duration,omitempty"`
	SizeBytes int64   `json:"size_bytes,omitempty"`
	// BoundaryHints are optional content boundary offsets in seconds.
	BoundaryHints []float64 `json:"boundary_hints,omitempty"`
}

// Job is one pipeline job record. Records are treated as immutable
// snapshots: mutation happens only through the store's update entry point,
// which writes a replacement row guarded by the revision counter.
type Job struct {
	ID        string
	InputRef  string
	Status    Status
	Step      Step
	Progress  float64
	Message   string
	Options   Options
	Units     []segments.Unit
	Analyses  []analysis.UnitAnalysis
	Result    *synthesis.Description
	Error     *Failure
	CreatedAt time.Time
	UpdatedAt time.Time
	Revision  int64
}

// IsTerminal reports whether the job reached a final state.
func (j Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// AnalyzedCount returns how many units have an analysis so far.
func (j Job) AnalyzedCount() int {
	return len(j.Analyses)
}

// SetFailed marks the job failed, preserving partial units and analyses for
// inspection.
func (j *Job) SetFailed(code services.Code, message, detail string) {
	j.Status = StatusFailed
	j.Error = &Failure{Code: code, Message: message, Detail: detail}
	j.Result = nil
	j.Message = message
}
