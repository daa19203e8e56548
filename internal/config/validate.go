package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	switch c.Segmentation.Strategy {
	case "heuristic", "managed":
	default:
		return fmt.Errorf("segmentation.strategy must be \"heuristic\" or \"managed\", got %q", c.Segmentation.Strategy)
	}
	if c.Segmentation.Overlap >= c.Segmentation.MaxUnitSpan {
		return errors.New("segmentation.overlap must be smaller than segmentation.max_unit_span")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	for name, value := range map[string]float64{
		"synthesis.high_confidence":    c.Synthesis.HighConfidence,
		"synthesis.medium_confidence":  c.Synthesis.MediumConfidence,
		"synthesis.chapter_similarity": c.Synthesis.ChapterSimilarity,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Synthesis.MediumConfidence > c.Synthesis.HighConfidence {
		return errors.New("synthesis.medium_confidence must not exceed synthesis.high_confidence")
	}
	if c.Synthesis.MinChapterSeconds < 0 {
		return errors.New("synthesis.min_chapter_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 10 {
		return errors.New("batch.concurrency must be between 1 and 10")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true (or set MINIO_ACCESS_KEY / MINIO_SECRET_KEY)")
	}
	return nil
}
