package synthesis_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"narrate/internal/analysis"
	"narrate/internal/segments"
	"narrate/internal/services"
	"narrate/internal/synthesis"
	"narrate/internal/textutil"
)

func sampleUnits() []segments.Unit {
	return []segments.Unit{
		{ID: "unit-001", StartOffset: 0, EndOffset: 30, Confidence: 0.9},
		{ID: "unit-002", StartOffset: 30, EndOffset: 60, Confidence: 0.85},
		{ID: "unit-003", StartOffset: 60, EndOffset: 90, Confidence: 0.8},
	}
}

func sampleAnalyses() []analysis.UnitAnalysis {
	return []analysis.UnitAnalysis{
		{
			UnitID:         "unit-001",
			Description:    "A chef chops vegetables on a wooden board. Caption reads fresh basil.",
			VisualElements: []string{"chef", "vegetables", "wooden board"},
			Actions:        []string{"chopping", "slicing", "arranging", "seasoning"},
			Context:        "kitchen cooking preparation",
			Confidence:     0.95,
			ProviderCost:   120,
		},
		{
			UnitID:       "unit-002",
			Description:  "The kitchen sits empty for a moment.",
			Context:      "kitchen cooking pause",
			Confidence:   0.5,
			ProviderCost: 80,
		},
		{
			UnitID:         "unit-003",
			Description:    "The chef plates the finished dish.",
			VisualElements: []string{"plate", "garnish"},
			Actions:        []string{"plating"},
			Context:        "kitchen cooking plating",
			Confidence:     0.92,
			ProviderCost:   100,
		},
	}
}

func newSynthesizer(t *testing.T, enhancer synthesis.Enhancer) *synthesis.Synthesizer {
	t.Helper()
	return synthesis.New(synthesis.DefaultOptions(), enhancer, nil, nil)
}

func TestSynthesizeKeyMomentScenario(t *testing.T) {
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if len(desc.KeyMoments) != 2 {
		t.Fatalf("expected 2 key moments, got %d: %+v", len(desc.KeyMoments), desc.KeyMoments)
	}
	if desc.KeyMoments[0].Importance != synthesis.ImportanceHigh || desc.KeyMoments[0].Timestamp != 0 {
		t.Fatalf("expected unit 1 as high first, got %+v", desc.KeyMoments[0])
	}
	if desc.KeyMoments[1].Importance != synthesis.ImportanceMedium || desc.KeyMoments[1].Timestamp != 60 {
		t.Fatalf("expected unit 3 as medium second, got %+v", desc.KeyMoments[1])
	}
}

func TestSynthesizeWordCountMatchesConcatenation(t *testing.T) {
	analyses := sampleAnalyses()
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), analyses)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	descriptions := make([]string, 0, len(analyses))
	for _, a := range analyses {
		descriptions = append(descriptions, a.Description)
	}
	want := textutil.CountWords(strings.Join(descriptions, " "))
	if desc.Metadata.WordCount != want {
		t.Fatalf("expected word count %d, got %d", want, desc.Metadata.WordCount)
	}

	// Idempotent across repeated synthesis on the same input.
	again, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), analyses)
	if err != nil {
		t.Fatalf("second Synthesize failed: %v", err)
	}
	if again.Metadata.WordCount != desc.Metadata.WordCount {
		t.Fatal("word count not stable across repeated synthesis")
	}
}

func TestSynthesizeNarrativeUsesTransitions(t *testing.T) {
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.HasPrefix(desc.Narrative, "The content opens with") {
		t.Fatalf("expected opening transition, got %q", desc.Narrative)
	}
	if !strings.Contains(desc.Narrative, "Finally,") {
		t.Fatalf("expected closing transition, got %q", desc.Narrative)
	}
	if desc.Metadata.Method != synthesis.MethodRuleBased {
		t.Fatalf("expected rule-based method, got %s", desc.Metadata.Method)
	}
}

type fakeEnhancer struct {
	output string
	err    error
	input  string
}

func (e *fakeEnhancer) EnhanceNarrative(ctx context.Context, text string) (string, error) {
	e.input = text
	return e.output, e.err
}

func TestSynthesizeUsesEnhancerWhenAvailable(t *testing.T) {
	enhancer := &fakeEnhancer{output: "A polished narrative."}
	desc, err := newSynthesizer(t, enhancer).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if desc.Narrative != "A polished narrative." {
		t.Fatalf("expected enhanced narrative, got %q", desc.Narrative)
	}
	if desc.Metadata.Method != synthesis.MethodEnhanced {
		t.Fatalf("expected enhanced method, got %s", desc.Metadata.Method)
	}
	if enhancer.input == "" {
		t.Fatal("enhancer should receive the rule-based concatenation")
	}
}

func TestSynthesizeFallsBackWhenEnhancerFails(t *testing.T) {
	enhancer := &fakeEnhancer{err: errors.New("model overloaded")}
	desc, err := newSynthesizer(t, enhancer).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if desc.Metadata.Method != synthesis.MethodRuleBased {
		t.Fatalf("expected graceful fallback to rule-based, got %s", desc.Metadata.Method)
	}
	if !strings.HasPrefix(desc.Narrative, "The content opens with") {
		t.Fatalf("expected rule-based narrative, got %q", desc.Narrative)
	}
}

func TestSynthesizeTimestampedLinesPerUnit(t *testing.T) {
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	lines := strings.Split(desc.Timestamped, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 timestamped lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[0.0s-30.0s]") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestSynthesizeAccessibilityCapturesOnScreenText(t *testing.T) {
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.Contains(desc.Accessibility, "On-screen text:") {
		t.Fatalf("expected caption mention in accessibility view: %q", desc.Accessibility)
	}
	if !strings.Contains(desc.Accessibility, "chef") {
		t.Fatalf("expected essential elements in accessibility view: %q", desc.Accessibility)
	}
}

func TestSynthesizeHighlightsDeduplicatedAndCapped(t *testing.T) {
	units := sampleUnits()
	analyses := sampleAnalyses()
	// Repeat elements across units; dedup must keep first occurrence only.
	analyses[2].VisualElements = append(analyses[2].VisualElements, "Chef", "vegetables")

	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), units, analyses)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	seen := make(map[string]int)
	for _, h := range desc.Highlights {
		seen[strings.ToLower(h)]++
	}
	if seen["chef"] != 1 {
		t.Fatalf("expected chef deduplicated, got %v", desc.Highlights)
	}
	if len(desc.Highlights) > 10 {
		t.Fatalf("highlights exceed cap: %d", len(desc.Highlights))
	}
	// Short tokens are filtered by length policy.
	for _, h := range desc.Highlights {
		if len(h) <= 3 {
			t.Fatalf("short element leaked into highlights: %q", h)
		}
	}
}

func TestSynthesizeChaptersGroupBySimilarContext(t *testing.T) {
	units := []segments.Unit{
		{ID: "u1", StartOffset: 0, EndOffset: 30},
		{ID: "u2", StartOffset: 30, EndOffset: 60},
		{ID: "u3", StartOffset: 60, EndOffset: 90},
		{ID: "u4", StartOffset: 90, EndOffset: 120},
	}
	analyses := []analysis.UnitAnalysis{
		{UnitID: "u1", Description: "Cooking begins.", Context: "kitchen cooking preparation", Confidence: 0.9, VisualElements: []string{"kitchen"}},
		{UnitID: "u2", Description: "Cooking continues.", Context: "kitchen cooking simmering", Confidence: 0.9, VisualElements: []string{"kitchen"}},
		{UnitID: "u3", Description: "A hike starts.", Context: "mountain hiking outdoors", Confidence: 0.9, VisualElements: []string{"mountain"}},
		{UnitID: "u4", Description: "The hike continues.", Context: "mountain hiking summit", Confidence: 0.9, VisualElements: []string{"mountain"}},
	}

	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), units, analyses)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(desc.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %+v", len(desc.Chapters), desc.Chapters)
	}
	if desc.Chapters[0].Timestamp != 0 || desc.Chapters[1].Timestamp != 60 {
		t.Fatalf("unexpected chapter boundaries: %+v", desc.Chapters)
	}
	if desc.Chapters[0].Title == "" || desc.Chapters[1].Title == "" {
		t.Fatalf("chapters must carry titles: %+v", desc.Chapters)
	}
}

func TestSynthesizeSkipsChaptersForShortContent(t *testing.T) {
	units := []segments.Unit{{ID: "u1", StartOffset: 0, EndOffset: 20}}
	analyses := []analysis.UnitAnalysis{{UnitID: "u1", Description: "Brief clip.", Confidence: 0.9}}

	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), units, analyses)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(desc.Chapters) != 0 {
		t.Fatalf("expected no chapters below 2x minimum duration, got %+v", desc.Chapters)
	}
}

func TestSynthesizeSortsUnorderedInput(t *testing.T) {
	units := sampleUnits()
	analyses := sampleAnalyses()
	// Reverse both slices; pairing is positional so they stay aligned.
	for i, j := 0, len(units)-1; i < j; i, j = i+1, j-1 {
		units[i], units[j] = units[j], units[i]
		analyses[i], analyses[j] = analyses[j], analyses[i]
	}

	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), units, analyses)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.HasPrefix(desc.Timestamped, "[0.0s-30.0s]") {
		t.Fatalf("expected output ordered by start offset, got %q", desc.Timestamped)
	}
}

func TestSynthesizeRejectsMisalignedInput(t *testing.T) {
	_, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses()[:2])
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis failure, got %v", err)
	}
}

func TestSynthesizeRejectsEmptyInput(t *testing.T) {
	_, err := newSynthesizer(t, nil).Synthesize(context.Background(), nil, nil)
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected synthesis failure, got %v", err)
	}
}

func TestSynthesizeMetadataAggregates(t *testing.T) {
	desc, err := newSynthesizer(t, nil).Synthesize(context.Background(), sampleUnits(), sampleAnalyses())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	meta := desc.Metadata
	if meta.TotalProviderCost != 300 {
		t.Fatalf("expected total cost 300, got %f", meta.TotalProviderCost)
	}
	if meta.TotalDuration != 90 {
		t.Fatalf("expected duration 90, got %f", meta.TotalDuration)
	}
	wantAvg := (0.95 + 0.5 + 0.92) / 3
	if diff := meta.AverageConfidence - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected avg confidence %f, got %f", wantAvg, meta.AverageConfidence)
	}
	if meta.DistinctElements != 5 {
		t.Fatalf("expected 5 distinct elements, got %d", meta.DistinctElements)
	}
	if meta.DistinctActions != 5 {
		t.Fatalf("expected 5 distinct actions, got %d", meta.DistinctActions)
	}
}
