package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Segmentation.Strategy != "heuristic" {
		t.Fatalf("unexpected default strategy: %q", cfg.Segmentation.Strategy)
	}
	if cfg.Batch.Concurrency != 3 {
		t.Fatalf("unexpected default concurrency: %d", cfg.Batch.Concurrency)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for absent file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Analysis.MaxAttempts != 3 {
		t.Fatalf("defaults not applied: %+v", cfg.Analysis)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[segmentation]
strategy = "managed"
max_unit_span = 45.0

[analysis]
max_attempts = 5

[batch]
concurrency = 8
fail_fast = true

[logging]
format = "JSON"
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Segmentation.Strategy != "managed" || cfg.Segmentation.MaxUnitSpan != 45 {
		t.Fatalf("segmentation overrides not applied: %+v", cfg.Segmentation)
	}
	if cfg.Analysis.MaxAttempts != 5 {
		t.Fatalf("analysis override not applied: %+v", cfg.Analysis)
	}
	if cfg.Batch.Concurrency != 8 || !cfg.Batch.FailFast {
		t.Fatalf("batch overrides not applied: %+v", cfg.Batch)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format not normalized: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := writeConfig(t, `
[segmentation]
strategy = "psychic"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "segmentation.strategy") {
		t.Fatalf("expected strategy error, got %v", err)
	}
}

func TestLoadRejectsOverlapBeyondSpan(t *testing.T) {
	path := writeConfig(t, `
[segmentation]
max_unit_span = 10.0
overlap = 12.0
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestLoadRejectsConcurrencyOutOfRange(t *testing.T) {
	path := writeConfig(t, `
[batch]
concurrency = 25
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "batch.concurrency") {
		t.Fatalf("expected concurrency error, got %v", err)
	}
}

func TestLoadRejectsConfidenceOutOfRange(t *testing.T) {
	path := writeConfig(t, `
[synthesis]
high_confidence = 1.4
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "high_confidence") {
		t.Fatalf("expected confidence error, got %v", err)
	}
}

func TestStorageEnabledRequiresEndpoint(t *testing.T) {
	path := writeConfig(t, `
[storage]
enabled = true
access_key = "minio"
secret_key = "minio123"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "storage.endpoint") {
		t.Fatalf("expected endpoint error, got %v", err)
	}
}

func TestOpenAIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := writeConfig(t, "")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("expected environment key, got %q", cfg.OpenAI.APIKey)
	}
}

func TestCreateSampleWritesParsableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/narrate")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if expanded != filepath.Join(home, "narrate") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}
