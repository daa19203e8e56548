package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"narrate/internal/logging"
	"narrate/internal/textutil"
)

var middleTransitions = []string{"Then", "Next", "Following that", "Afterwards"}

// onScreenTextPattern matches caption and on-screen text mentions inside
// unit descriptions for the accessibility view.
var onScreenTextPattern = regexp.MustCompile(`(?i)(?:on-screen text|text on screen|caption|subtitle|text read(?:s|ing)?|sign say(?:s|ing)?)[^.!?]*[.!?]?`)

func (s *Synthesizer) buildNarrative(ctx context.Context, pairs []pair) (string, Method) {
	ruleBased := s.ruleBasedNarrative(pairs)
	if s.enhancer == nil {
		return ruleBased, MethodRuleBased
	}
	enhanced, err := s.enhancer.EnhanceNarrative(ctx, ruleBased)
	if err != nil || strings.TrimSpace(enhanced) == "" {
		s.logger.Warn("narrative enhancement unavailable, using rule-based output", logging.Error(err))
		return ruleBased, MethodRuleBased
	}
	return strings.TrimSpace(enhanced), MethodEnhanced
}

func (s *Synthesizer) ruleBasedNarrative(pairs []pair) string {
	parts := make([]string, 0, len(pairs))
	for i, p := range pairs {
		text := strings.TrimSpace(p.res.Description)
		if text == "" {
			continue
		}
		switch {
		case i == 0:
			parts = append(parts, fmt.Sprintf("The content opens with %s", lowerFirst(text)))
		case i == len(pairs)-1:
			parts = append(parts, fmt.Sprintf("Finally, %s", lowerFirst(text)))
		default:
			transition := middleTransitions[(i-1)%len(middleTransitions)]
			parts = append(parts, fmt.Sprintf("%s, %s", transition, lowerFirst(text)))
		}
	}
	joined := strings.Join(parts, " ")
	if joined != "" && !strings.ContainsAny(joined[len(joined)-1:], ".!?") {
		joined += "."
	}
	return joined
}

func (s *Synthesizer) buildTimestamped(pairs []pair) string {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		condensed := textutil.Condense(p.res.Description, s.opts.TimestampedMaxLength)
		lines = append(lines, fmt.Sprintf("[%.1fs-%.1fs] %s", p.unit.StartOffset, p.unit.EndOffset, condensed))
	}
	return strings.Join(lines, "\n")
}

func (s *Synthesizer) buildTechnical(pairs []pair) string {
	var confidenceSum float64
	for _, p := range pairs {
		confidenceSum += p.res.Confidence
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Units: %d\n", len(pairs))
	fmt.Fprintf(&b, "Total duration: %.1fs\n", pairs[len(pairs)-1].unit.EndOffset-pairs[0].unit.StartOffset)
	fmt.Fprintf(&b, "Average confidence: %.2f\n", confidenceSum/float64(len(pairs)))

	for i, p := range pairs {
		fmt.Fprintf(&b, "\n--- Unit %d (%s) ---\n", i+1, p.unit.ID)
		fmt.Fprintf(&b, "Offsets: %.1fs-%.1fs\n", p.unit.StartOffset, p.unit.EndOffset)
		fmt.Fprintf(&b, "Confidence: %.2f\n", p.res.Confidence)
		if len(p.res.VisualElements) > 0 {
			fmt.Fprintf(&b, "Elements: %s\n", strings.Join(p.res.VisualElements, ", "))
		}
		if len(p.res.Actions) > 0 {
			fmt.Fprintf(&b, "Actions: %s\n", strings.Join(p.res.Actions, ", "))
		}
		if p.res.Context != "" {
			fmt.Fprintf(&b, "Context: %s\n", p.res.Context)
		}
		fmt.Fprintf(&b, "Description: %s\n", p.res.Description)
	}
	return b.String()
}

func (s *Synthesizer) buildAccessibility(pairs []pair) string {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		essentials := make([]string, 0, 5)
		essentials = append(essentials, topValues(p.res.VisualElements, 2)...)
		essentials = append(essentials, topValues(p.res.Actions, 2)...)
		if c := strings.TrimSpace(p.res.Context); c != "" {
			essentials = append(essentials, c)
		}
		if len(essentials) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("At %.0f seconds: %s.", p.unit.StartOffset, strings.Join(essentials, ", ")))
	}

	for _, p := range pairs {
		for _, match := range onScreenTextPattern.FindAllString(p.res.Description, -1) {
			lines = append(lines, "On-screen text: "+strings.TrimSpace(match))
		}
	}
	return strings.Join(lines, "\n")
}

func topValues(values []string, n int) []string {
	out := make([]string, 0, n)
	for _, value := range values {
		if value = strings.TrimSpace(value); value == "" {
			continue
		}
		out = append(out, value)
		if len(out) == n {
			break
		}
	}
	return out
}

func lowerFirst(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	return strings.ToLower(string(runes[0])) + string(runes[1:])
}
