package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"narrate/internal/analysis"
	"narrate/internal/jobs"
	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
	"narrate/internal/synthesis"
)

// Progress milestones per stage. Analysis interpolates between its floor
// and ceiling proportionally to units completed.
const (
	progressUpload         = 10.0
	progressSegmenting     = 25.0
	progressSegmented      = 40.0
	progressAnalyzed       = 90.0
	progressComplete       = 100.0
	defaultAnalysisPerTick = 4
)

// UnitAnalyzer is the per-unit analysis capability the orchestrator drives.
type UnitAnalyzer interface {
	Analyze(ctx context.Context, unit segments.Unit, contentRef string) (analysis.UnitAnalysis, error)
}

// Deps wires the orchestrator's collaborators. Planner variants are keyed
// by strategy and selected per job from its creation options.
type Deps struct {
	Store       *jobs.Store
	Planners    map[jobs.Strategy]segments.Planner
	Analyzer    UnitAnalyzer
	Synthesizer *synthesis.Synthesizer
	Logger      *slog.Logger
}

// Config tunes orchestration behavior.
type Config struct {
	// AnalysisPerTick caps how many units one Advance call analyzes, so a
	// single status check never blocks unboundedly.
	AnalysisPerTick int
}

// Orchestrator advances job records through the pipeline state machine.
// It owns no background timers; callers decide when to advance (pull model).
type Orchestrator struct {
	store       *jobs.Store
	planners    map[jobs.Strategy]segments.Planner
	analyzer    UnitAnalyzer
	synthesizer *synthesis.Synthesizer
	logger      *slog.Logger
	perTick     int
}

// New constructs an orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	perTick := cfg.AnalysisPerTick
	if perTick <= 0 {
		perTick = defaultAnalysisPerTick
	}
	return &Orchestrator{
		store:       deps.Store,
		planners:    deps.Planners,
		analyzer:    deps.Analyzer,
		synthesizer: deps.Synthesizer,
		logger:      logging.NewComponentLogger(deps.Logger, "pipeline"),
		perTick:     perTick,
	}
}

// Create validates the input reference and persists a new pending job.
func (o *Orchestrator) Create(ctx context.Context, inputRef string, opts jobs.Options) (*jobs.Job, error) {
	if opts.Strategy != "" {
		if _, ok := o.planners[opts.Strategy]; !ok {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "create",
				fmt.Sprintf("unknown segmentation strategy %q", opts.Strategy), nil)
		}
	}
	job, err := o.store.Create(ctx, inputRef, opts)
	if err != nil {
		return nil, err
	}
	o.logger.Info("job created",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("input", job.InputRef),
		logging.String("strategy", string(job.Options.Strategy)),
	)
	return job, nil
}

// Get returns the current job snapshot.
func (o *Orchestrator) Get(ctx context.Context, id string) (*jobs.Job, error) {
	return o.store.Get(ctx, id)
}

// Advance performs at most one stage's worth of work for the job and
// returns the resulting record. Stage failures are absorbed into the
// record; the returned error reports only infrastructure problems (unknown
// job, store failures).
func (o *Orchestrator) Advance(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return job, nil
	}

	ctx = services.WithJobID(ctx, job.ID)
	switch {
	case job.Status == jobs.StatusPending:
		return o.startProcessing(ctx, job)
	case job.Step == jobs.StepUpload:
		return o.advanceUpload(ctx, job)
	case job.Step == jobs.StepSegmentation:
		return o.advanceSegmentation(ctx, job)
	case job.Step == jobs.StepAnalysis:
		return o.advanceAnalysis(ctx, job)
	case job.Step == jobs.StepSynthesis:
		return o.advanceSynthesis(ctx, job)
	default:
		return job, nil
	}
}

// RunToCompletion repeatedly advances the job until it reaches a terminal
// state or the context is cancelled.
func (o *Orchestrator) RunToCompletion(ctx context.Context, id string) (*jobs.Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		job, err := o.Advance(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.IsTerminal() {
			return job, nil
		}
	}
}

func (o *Orchestrator) startProcessing(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	return o.store.UpdateWith(ctx, job.ID, func(j jobs.Job) (jobs.Job, error) {
		if j.Status != jobs.StatusPending {
			return j, nil
		}
		j.Status = jobs.StatusProcessing
		j.Step = jobs.StepUpload
		j.Progress = progressUpload
		j.Message = "Preparing input"
		return j, nil
	})
}

func (o *Orchestrator) advanceUpload(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	return o.store.UpdateWith(ctx, job.ID, func(j jobs.Job) (jobs.Job, error) {
		if j.Step != jobs.StepUpload {
			return j, nil
		}
		j.Step = jobs.StepSegmentation
		j.Progress = progressSegmenting
		j.Message = "Segmenting input"
		return j, nil
	})
}

func (o *Orchestrator) advanceSegmentation(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	planner, err := o.plannerFor(job.Options.Strategy)
	if err != nil {
		return o.failJob(ctx, job.ID, err)
	}

	stageCtx := services.WithStage(ctx, "segmentation")
	units, err := planner.Plan(stageCtx, segments.Input{
		Ref:           job.InputRef,
		Duration:      job.Options.Duration,
		SizeBytes:     job.Options.SizeBytes,
		BoundaryHints: job.Options.BoundaryHints,
	})
	if err != nil {
		return o.failJob(ctx, job.ID, err)
	}

	logging.WithContext(stageCtx, o.logger).Info("segmentation complete", logging.Int("units", len(units)))
	return o.store.UpdateWith(ctx, job.ID, func(j jobs.Job) (jobs.Job, error) {
		if j.Step != jobs.StepSegmentation || len(j.Units) > 0 {
			return j, nil
		}
		j.Units = units
		j.Step = jobs.StepAnalysis
		j.Progress = progressSegmented
		j.Message = fmt.Sprintf("Segmented into %d units", len(units))
		return j, nil
	})
}

func (o *Orchestrator) advanceAnalysis(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	stageCtx := services.WithStage(ctx, "analysis")
	outstanding := job.Units[len(job.Analyses):]
	if len(outstanding) > o.perTick {
		outstanding = outstanding[:o.perTick]
	}

	results := make(map[string]analysis.UnitAnalysis, len(outstanding))
	for _, unit := range outstanding {
		result, err := o.analyzer.Analyze(stageCtx, unit, job.InputRef)
		if err != nil {
			return o.failJob(ctx, job.ID, err)
		}
		if job.Options.FailFast && result.IsFallback() {
			return o.failJob(ctx, job.ID, services.Wrap(
				services.ErrAnalysis, "analysis", "analyze",
				fmt.Sprintf("unit %s exhausted retries", unit.ID), nil))
		}
		results[unit.ID] = result
	}

	return o.store.UpdateWith(ctx, job.ID, func(j jobs.Job) (jobs.Job, error) {
		if j.Step != jobs.StepAnalysis {
			return j, nil
		}
		for i := len(j.Analyses); i < len(j.Units); i++ {
			result, ok := results[j.Units[i].ID]
			if !ok {
				break
			}
			j.Analyses = append(j.Analyses, result)
		}
		done := len(j.Analyses)
		total := len(j.Units)
		j.Progress = progressSegmented + (progressAnalyzed-progressSegmented)*float64(done)/float64(total)
		j.Message = fmt.Sprintf("Analyzed %d of %d units", done, total)
		if done == total {
			j.Step = jobs.StepSynthesis
			j.Message = "Synthesizing description"
		}
		return j, nil
	})
}

func (o *Orchestrator) advanceSynthesis(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	stageCtx := services.WithStage(ctx, "synthesis")
	result, err := o.synthesizer.Synthesize(stageCtx, job.Units, job.Analyses)
	if err != nil {
		return o.failJob(ctx, job.ID, err)
	}

	return o.store.UpdateWith(ctx, job.ID, func(j jobs.Job) (jobs.Job, error) {
		if j.Step != jobs.StepSynthesis || j.Result != nil {
			return j, nil
		}
		j.Result = &result
		j.Status = jobs.StatusCompleted
		j.Step = jobs.StepCompleted
		j.Progress = progressComplete
		j.Message = "Description ready"
		return j, nil
	})
}

// failJob records a stage failure on the job. Partial units and analyses
// stay on the record for inspection; a failed job is never retried here.
func (o *Orchestrator) failJob(ctx context.Context, id string, stageErr error) (*jobs.Job, error) {
	details := services.Details(stageErr)
	logging.WithContext(ctx, o.logger).Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("code", string(details.Code)),
		logging.Error(stageErr),
	)
	return o.store.UpdateWith(ctx, id, func(j jobs.Job) (jobs.Job, error) {
		if j.IsTerminal() {
			return j, nil
		}
		j.SetFailed(details.Code, details.Message, stageErr.Error())
		return j, nil
	})
}

func (o *Orchestrator) plannerFor(strategy jobs.Strategy) (segments.Planner, error) {
	if strategy == "" {
		strategy = jobs.StrategyHeuristic
	}
	planner, ok := o.planners[strategy]
	if !ok || planner == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "segmentation",
			fmt.Sprintf("no planner configured for strategy %q", strategy), nil)
	}
	return planner, nil
}
