package synthesis

import (
	"sort"
	"strings"

	"narrate/internal/textutil"
)

func (s *Synthesizer) buildKeyMoments(pairs []pair) []KeyMoment {
	moments := make([]KeyMoment, 0, len(pairs))
	for _, p := range pairs {
		importance := s.classifyImportance(p)
		if importance == ImportanceLow && len(p.res.Actions) <= s.opts.IncludeActionCount {
			continue
		}
		moments = append(moments, KeyMoment{
			Timestamp:   p.unit.StartOffset,
			Description: textutil.Condense(p.res.Description, s.opts.TimestampedMaxLength),
			Importance:  importance,
		})
	}
	sort.SliceStable(moments, func(i, j int) bool {
		ri, rj := importanceRank(moments[i].Importance), importanceRank(moments[j].Importance)
		if ri != rj {
			return ri < rj
		}
		return moments[i].Timestamp < moments[j].Timestamp
	})
	return moments
}

func (s *Synthesizer) classifyImportance(p pair) Importance {
	actionCount := len(p.res.Actions)
	switch {
	case p.res.Confidence > s.opts.HighConfidence && actionCount > s.opts.HighActionCount:
		return ImportanceHigh
	case p.res.Confidence > s.opts.MediumConfidence && actionCount >= s.opts.MediumActionCount:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

func importanceRank(importance Importance) int {
	switch importance {
	case ImportanceHigh:
		return 0
	case ImportanceMedium:
		return 1
	default:
		return 2
	}
}

func (s *Synthesizer) buildHighlights(pairs []pair) []string {
	seen := make(map[string]struct{})
	highlights := make([]string, 0, s.opts.HighlightCap)

	add := func(value string) bool {
		value = strings.TrimSpace(value)
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup || key == "" {
			return len(highlights) < s.opts.HighlightCap
		}
		seen[key] = struct{}{}
		highlights = append(highlights, value)
		return len(highlights) < s.opts.HighlightCap
	}

	for _, p := range pairs {
		for _, element := range p.res.VisualElements {
			if len(element) > 3 && !add(element) {
				return highlights
			}
		}
		for _, action := range p.res.Actions {
			if len(action) > 4 && !add(action) {
				return highlights
			}
		}
	}
	return highlights
}
