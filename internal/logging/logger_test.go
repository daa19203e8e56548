package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"narrate/internal/logging"
	"narrate/internal/services"
)

func TestNewJSONLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hello", logging.String("key", "value"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextCarriesJobAndStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-123")
	ctx = services.WithStage(ctx, "analysis")
	logging.WithContext(ctx, logger).Info("tick")

	out := buf.String()
	if !strings.Contains(out, `"job_id":"job-123"`) || !strings.Contains(out, `"stage":"analysis"`) {
		t.Fatalf("context fields missing from output: %s", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("ignored")
	logger = logging.NewComponentLogger(nil, "test")
	logger.Error("still ignored")
}
