package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSegmentation()
	c.normalizeAnalysis()
	c.normalizeBatch()
	c.normalizeOpenAI()
	c.normalizeStorage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSegmentation() {
	c.Segmentation.Strategy = strings.ToLower(strings.TrimSpace(c.Segmentation.Strategy))
	if c.Segmentation.Strategy == "" {
		c.Segmentation.Strategy = defaultStrategy
	}
	if c.Segmentation.MaxUnitSpan <= 0 {
		c.Segmentation.MaxUnitSpan = defaultMaxUnitSpan
	}
	if c.Segmentation.Overlap < 0 {
		c.Segmentation.Overlap = 0
	}
	if c.Segmentation.PollIntervalSeconds <= 0 {
		c.Segmentation.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Segmentation.PollTimeoutSeconds < 0 {
		c.Segmentation.PollTimeoutSeconds = 0
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.MaxAttempts <= 0 {
		c.Analysis.MaxAttempts = defaultMaxAttempts
	}
	if c.Analysis.BackoffBaseMillis <= 0 {
		c.Analysis.BackoffBaseMillis = defaultBackoffBaseMillis
	}
	if c.Analysis.BackoffMaxMillis <= 0 {
		c.Analysis.BackoffMaxMillis = defaultBackoffMaxMillis
	}
	if c.Analysis.UnitsPerTick <= 0 {
		c.Analysis.UnitsPerTick = defaultUnitsPerTick
	}
}

func (c *Config) normalizeBatch() {
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = defaultBatchConcurrency
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = 500
	}
	if c.OpenAI.CostPerKiloTokens <= 0 {
		c.OpenAI.CostPerKiloTokens = 0.01
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("MINIO_ACCESS_KEY"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("MINIO_SECRET_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
