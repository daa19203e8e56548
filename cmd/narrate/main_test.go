package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"narrate/internal/jobs"
	"narrate/internal/services"
	"narrate/internal/synthesis"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	want := []string{"describe", "batch", "status", "show", "config"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	root := newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	var out bytes.Buffer
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("expected output to mention %s, got %q", target, out.String())
	}

	root = newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	root.SetOut(new(bytes.Buffer))
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	rendered := renderTable(
		[]string{"ID", "STATUS"},
		[][]string{{"abc123", "completed"}, {"def456", "failed"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	for _, want := range []string{"ID", "STATUS", "abc123", "completed", "def456"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered table missing %q:\n%s", want, rendered)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("unexpected short id: %q", got)
	}
	if got := shortID("tiny"); got != "tiny" {
		t.Fatalf("short ids must pass through, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(0); got != "-" {
		t.Fatalf("zero duration should render as dash, got %q", got)
	}
	if got := formatDuration(1234567 * time.Microsecond); got != "1.235s" {
		t.Fatalf("unexpected duration rendering: %q", got)
	}
}

func TestRenderJobSummaryOutput(t *testing.T) {
	var out bytes.Buffer
	job := &jobs.Job{
		ID:       "job-1",
		InputRef: "videos/cooking.mp4",
		Status:   jobs.StatusCompleted,
		Step:     jobs.StepCompleted,
		Progress: 100,
		Result: &synthesis.Description{
			Narrative: "The content opens with a kitchen.",
			Metadata: synthesis.Metadata{
				WordCount:         6,
				SentenceCount:     1,
				AverageConfidence: 0.9,
				Method:            synthesis.MethodRuleBased,
				Language:          "en",
			},
		},
	}
	if err := renderJobSummary(&out, job); err != nil {
		t.Fatalf("renderJobSummary failed: %v", err)
	}
	for _, want := range []string{"job-1", "videos/cooking.mp4", "completed", "Language: en"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestRenderJobSummaryShowsFailure(t *testing.T) {
	var out bytes.Buffer
	job := &jobs.Job{
		ID:       "job-2",
		InputRef: "videos/blank.mp4",
		Status:   jobs.StatusFailed,
		Step:     jobs.StepSegmentation,
		Error:    &jobs.Failure{Code: services.CodeEmptyInput, Message: "no describable units"},
	}
	if err := renderJobSummary(&out, job); err != nil {
		t.Fatalf("renderJobSummary failed: %v", err)
	}
	if !strings.Contains(out.String(), "empty_input") || !strings.Contains(out.String(), "no describable units") {
		t.Fatalf("summary missing failure detail:\n%s", out.String())
	}
}
