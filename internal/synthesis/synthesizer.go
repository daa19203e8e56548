package synthesis

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"narrate/internal/analysis"
	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
	"narrate/internal/textutil"
)

// Enhancer is the optional text-generation capability that rewrites the
// rule-based narrative for flow. Absence or failure degrades gracefully.
type Enhancer interface {
	EnhanceNarrative(ctx context.Context, text string) (string, error)
}

// LanguageDetector identifies the language of synthesized text for the
// metadata block.
type LanguageDetector interface {
	DetectLanguage(text string) (string, bool)
}

// Synthesizer merges an ordered analyses sequence into the multi-view
// description aggregate.
type Synthesizer struct {
	opts     Options
	enhancer Enhancer
	detector LanguageDetector
	logger   *slog.Logger
}

// New builds a synthesizer. enhancer and detector may be nil.
func New(opts Options, enhancer Enhancer, detector LanguageDetector, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		opts:     opts.normalized(),
		enhancer: enhancer,
		detector: detector,
		logger:   logging.NewComponentLogger(logger, "synthesis"),
	}
}

type pair struct {
	unit segments.Unit
	res  analysis.UnitAnalysis
}

// Synthesize computes the description aggregate from the complete analyses
// sequence. Units and analyses must pair up one to one; ordering by start
// offset is enforced here rather than assumed.
func (s *Synthesizer) Synthesize(ctx context.Context, units []segments.Unit, analyses []analysis.UnitAnalysis) (Description, error) {
	if len(units) == 0 || len(analyses) == 0 {
		return Description{}, services.Wrap(services.ErrSynthesis, "synthesis", "merge", "no analyses to merge", nil)
	}
	if len(units) != len(analyses) {
		return Description{}, services.Wrap(services.ErrSynthesis, "synthesis", "merge", "units and analyses are misaligned", nil)
	}

	pairs := make([]pair, len(units))
	for i := range units {
		pairs[i] = pair{unit: units[i], res: analyses[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].unit.StartOffset < pairs[j].unit.StartOffset
	})

	narrative, method := s.buildNarrative(ctx, pairs)

	desc := Description{
		Narrative:     narrative,
		Timestamped:   s.buildTimestamped(pairs),
		Technical:     s.buildTechnical(pairs),
		Accessibility: s.buildAccessibility(pairs),
		KeyMoments:    s.buildKeyMoments(pairs),
		Highlights:    s.buildHighlights(pairs),
		Chapters:      s.buildChapters(pairs),
	}
	desc.Metadata = s.buildMetadata(pairs, method, narrative)

	s.logger.Info("synthesis complete",
		logging.Int("units", len(pairs)),
		logging.Int("key_moments", len(desc.KeyMoments)),
		logging.Int("chapters", len(desc.Chapters)),
		logging.String("method", string(method)),
	)
	return desc, nil
}

func (s *Synthesizer) buildMetadata(pairs []pair, method Method, narrative string) Metadata {
	var concatenated strings.Builder
	var confidenceSum, costSum float64
	elements := make(map[string]struct{})
	actions := make(map[string]struct{})
	for _, p := range pairs {
		if concatenated.Len() > 0 {
			concatenated.WriteString(" ")
		}
		concatenated.WriteString(p.res.Description)
		confidenceSum += p.res.Confidence
		costSum += p.res.ProviderCost
		for _, element := range p.res.VisualElements {
			elements[strings.ToLower(element)] = struct{}{}
		}
		for _, action := range p.res.Actions {
			actions[strings.ToLower(action)] = struct{}{}
		}
	}

	raw := concatenated.String()
	meta := Metadata{
		WordCount:         textutil.CountWords(raw),
		SentenceCount:     textutil.CountSentences(raw),
		AverageConfidence: confidenceSum / float64(len(pairs)),
		TotalProviderCost: costSum,
		DistinctElements:  len(elements),
		DistinctActions:   len(actions),
		Method:            method,
		TotalDuration:     pairs[len(pairs)-1].unit.EndOffset - pairs[0].unit.StartOffset,
	}
	if s.detector != nil {
		if language, ok := s.detector.DetectLanguage(narrative); ok {
			meta.Language = language
		}
	}
	return meta
}
