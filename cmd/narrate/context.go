package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"narrate/internal/analysis"
	"narrate/internal/batch"
	"narrate/internal/config"
	"narrate/internal/jobs"
	"narrate/internal/logging"
	"narrate/internal/pipeline"
	provider "narrate/internal/providers/openai"
	"narrate/internal/segments"
	objectstore "narrate/internal/storage/minio"
	"narrate/internal/synthesis"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// openStore opens the job store alone, for commands that only read records.
func (c *commandContext) openStore() (*jobs.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := jobs.Open(cfg.Paths.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open job store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// pipelineServices bundles everything a describing command needs.
type pipelineServices struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobs.Store
	orch   *pipeline.Orchestrator
}

// openPipeline wires the full pipeline: store, planners, analyzer,
// synthesizer, and orchestrator. The returned closer releases the store.
func (c *commandContext) openPipeline() (*pipelineServices, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.newLogger()
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}

	visionProvider, err := provider.NewVisionProvider(c.providerConfig(), logger)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("configure analysis provider: %w", err)
	}
	analyzer := analysis.New(visionProvider, logger,
		analysis.WithMaxAttempts(cfg.Analysis.MaxAttempts),
		analysis.WithBackoff(
			time.Duration(cfg.Analysis.BackoffBaseMillis)*time.Millisecond,
			time.Duration(cfg.Analysis.BackoffMaxMillis)*time.Millisecond,
		),
	)

	var enhancer synthesis.Enhancer
	if cfg.OpenAI.EnhanceNarrative {
		e, err := provider.NewEnhancer(c.providerConfig(), logger)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("configure narrative enhancer: %w", err)
		}
		enhancer = e
	}
	var detector synthesis.LanguageDetector
	if cfg.Synthesis.DetectLanguage {
		detector = synthesis.NewLinguaDetector()
	}
	synthesizer := synthesis.New(c.synthesisOptions(), enhancer, detector, logger)

	orch := pipeline.New(pipeline.Deps{
		Store:       store,
		Planners:    c.planners(logger),
		Analyzer:    analyzer,
		Synthesizer: synthesizer,
		Logger:      logger,
	}, pipeline.Config{AnalysisPerTick: cfg.Analysis.UnitsPerTick})

	return &pipelineServices{
		cfg:    cfg,
		logger: logger,
		store:  store,
		orch:   orch,
	}, closeStore, nil
}

func (c *commandContext) newBatchController() (*batch.Controller, *pipelineServices, func(), error) {
	services, closer, err := c.openPipeline()
	if err != nil {
		return nil, nil, nil, err
	}
	return batch.New(services.orch, services.logger), services, closer, nil
}

// newContentStore connects the object store when storage is enabled;
// commands treat a nil store as "references are opaque".
func (c *commandContext) newContentStore(logger *slog.Logger) (*objectstore.ContentStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	return objectstore.New(objectstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	}, logger)
}

func (c *commandContext) newSpeech(logger *slog.Logger) (*provider.Speech, error) {
	return provider.NewSpeech(c.providerConfig(), logger)
}

func (c *commandContext) providerConfig() provider.Config {
	cfg := c.config
	return provider.Config{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		VisionModel:       cfg.OpenAI.VisionModel,
		TextModel:         cfg.OpenAI.TextModel,
		SpeechModel:       cfg.OpenAI.SpeechModel,
		Voice:             cfg.OpenAI.Voice,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		Temperature:       float32(cfg.OpenAI.Temperature),
		CostPerKiloTokens: cfg.OpenAI.CostPerKiloTokens,
	}
}

func (c *commandContext) synthesisOptions() synthesis.Options {
	cfg := c.config
	return synthesis.Options{
		TimestampedMaxLength: cfg.Synthesis.TimestampedMaxLength,
		HighlightCap:         cfg.Synthesis.HighlightCap,
		HighConfidence:       cfg.Synthesis.HighConfidence,
		HighActionCount:      cfg.Synthesis.HighActionCount,
		MediumConfidence:     cfg.Synthesis.MediumConfidence,
		MediumActionCount:    cfg.Synthesis.MediumActionCount,
		IncludeActionCount:   cfg.Synthesis.IncludeActionCount,
		MinChapterSeconds:    cfg.Synthesis.MinChapterSeconds,
		ChapterSimilarity:    cfg.Synthesis.ChapterSimilarity,
	}
}

func (c *commandContext) planners(logger *slog.Logger) map[jobs.Strategy]segments.Planner {
	cfg := c.config
	heuristic := segments.NewHeuristicPlanner(segments.HeuristicOptions{
		MaxUnitSpan:       cfg.Segmentation.MaxUnitSpan,
		Overlap:           cfg.Segmentation.Overlap,
		AlignToBoundaries: cfg.Segmentation.AlignToBoundaries,
	})
	managed := segments.NewManagedPlanner(
		segments.NewLocalDetector(heuristic.Plan),
		time.Duration(cfg.Segmentation.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.Segmentation.PollTimeoutSeconds)*time.Second,
		logger,
	)
	return map[jobs.Strategy]segments.Planner{
		jobs.StrategyHeuristic: heuristic,
		jobs.StrategyManaged:   managed,
	}
}
