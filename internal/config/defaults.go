package config

const (
	defaultDataDir             = "~/.local/share/narrate/data"
	defaultLogDir              = "~/.local/share/narrate/logs"
	defaultOutputDir           = "~/narrate"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultStrategy            = "heuristic"
	defaultMaxUnitSpan         = 30.0
	defaultPollIntervalSeconds = 2
	defaultPollTimeoutSeconds  = 300
	defaultMaxAttempts         = 3
	defaultBackoffBaseMillis   = 500
	defaultBackoffMaxMillis    = 8000
	defaultUnitsPerTick        = 4
	defaultBatchConcurrency    = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Segmentation: Segmentation{
			Strategy:            defaultStrategy,
			MaxUnitSpan:         defaultMaxUnitSpan,
			AlignToBoundaries:   true,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollTimeoutSeconds:  defaultPollTimeoutSeconds,
		},
		Analysis: Analysis{
			MaxAttempts:       defaultMaxAttempts,
			BackoffBaseMillis: defaultBackoffBaseMillis,
			BackoffMaxMillis:  defaultBackoffMaxMillis,
			UnitsPerTick:      defaultUnitsPerTick,
		},
		Synthesis: Synthesis{
			TimestampedMaxLength: 120,
			HighlightCap:         10,
			HighConfidence:       0.9,
			HighActionCount:      3,
			MediumConfidence:     0.7,
			MediumActionCount:    1,
			IncludeActionCount:   2,
			MinChapterSeconds:    30,
			ChapterSimilarity:    0.5,
			DetectLanguage:       true,
		},
		Batch: Batch{
			Concurrency: defaultBatchConcurrency,
		},
		OpenAI: OpenAI{
			MaxTokens:         500,
			CostPerKiloTokens: 0.01,
			EnhanceNarrative:  true,
		},
	}
}
