package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Segmentation contains configuration for splitting input into units.
type Segmentation struct {
	// Strategy selects the planner: "heuristic" (local chunking) or
	// "managed" (asynchronous detection service).
	Strategy            string  `toml:"strategy"`
	MaxUnitSpan         float64 `toml:"max_unit_span"`
	Overlap             float64 `toml:"overlap"`
	AlignToBoundaries   bool    `toml:"align_to_boundaries"`
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	PollTimeoutSeconds  int     `toml:"poll_timeout_seconds"`
}

// Analysis contains configuration for per-unit analysis retries.
type Analysis struct {
	MaxAttempts       int `toml:"max_attempts"`
	BackoffBaseMillis int `toml:"backoff_base_millis"`
	BackoffMaxMillis  int `toml:"backoff_max_millis"`
	UnitsPerTick      int `toml:"units_per_tick"`
}

// Synthesis contains the description assembly thresholds. The values are
// editorial policy rather than correctness requirements.
type Synthesis struct {
	TimestampedMaxLength int     `toml:"timestamped_max_length"`
	HighlightCap         int     `toml:"highlight_cap"`
	HighConfidence       float64 `toml:"high_confidence"`
	HighActionCount      int     `toml:"high_action_count"`
	MediumConfidence     float64 `toml:"medium_confidence"`
	MediumActionCount    int     `toml:"medium_action_count"`
	IncludeActionCount   int     `toml:"include_action_count"`
	MinChapterSeconds    float64 `toml:"min_chapter_seconds"`
	ChapterSimilarity    float64 `toml:"chapter_similarity"`
	DetectLanguage       bool    `toml:"detect_language"`
}

// Batch contains configuration for multi-input runs.
type Batch struct {
	Concurrency int  `toml:"concurrency"`
	FailFast    bool `toml:"fail_fast"`
}

// OpenAI contains provider connection settings shared by analysis,
// narrative enhancement, and speech rendering.
type OpenAI struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	VisionModel       string  `toml:"vision_model"`
	TextModel         string  `toml:"text_model"`
	SpeechModel       string  `toml:"speech_model"`
	Voice             string  `toml:"voice"`
	MaxTokens         int     `toml:"max_tokens"`
	Temperature       float64 `toml:"temperature"`
	CostPerKiloTokens float64 `toml:"cost_per_kilo_tokens"`
	EnhanceNarrative  bool    `toml:"enhance_narrative"`
}

// Storage contains object store connection settings for source content and
// rendered artifacts.
type Storage struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Config encapsulates all configuration values for narrate.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and output directories
//   - Logging: log format and level
//   - Segmentation: planner strategy, chunk sizing, and polling bounds
//   - Analysis: retry attempts, backoff, and per-advance unit cap
//   - Synthesis: description assembly thresholds
//   - Batch: worker pool sizing and failure policy
//   - OpenAI: provider credentials and model selection
//   - Storage: S3-compatible object store for content references
type Config struct {
	Paths        Paths        `toml:"paths"`
	Logging      Logging      `toml:"logging"`
	Segmentation Segmentation `toml:"segmentation"`
	Analysis     Analysis     `toml:"analysis"`
	Synthesis    Synthesis    `toml:"synthesis"`
	Batch        Batch        `toml:"batch"`
	OpenAI       OpenAI       `toml:"openai"`
	Storage      Storage      `toml:"storage"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/narrate/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// values from a local .env file are applied first so config fields can fall
// back to them. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("narrate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
