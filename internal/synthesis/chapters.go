package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"narrate/internal/textutil"
)

var titleCaser = cases.Title(language.English)

func (s *Synthesizer) buildChapters(pairs []pair) []Chapter {
	totalDuration := pairs[len(pairs)-1].unit.EndOffset - pairs[0].unit.StartOffset
	if totalDuration < 2*s.opts.MinChapterSeconds {
		return nil
	}

	maxChapterSeconds := 2 * s.opts.MinChapterSeconds
	var chapters []Chapter
	group := []pair{pairs[0]}

	flush := func() {
		chapters = append(chapters, s.finishChapter(group, len(chapters)+1))
		group = group[:0]
	}

	for _, p := range pairs[1:] {
		anchor := group[0]
		elapsed := p.unit.EndOffset - anchor.unit.StartOffset
		similar := textutil.OverlapSimilarity(anchor.res.Context, p.res.Context) >= s.opts.ChapterSimilarity
		if similar && elapsed <= maxChapterSeconds {
			group = append(group, p)
			continue
		}
		flush()
		group = append(group, p)
	}
	flush()
	return chapters
}

func (s *Synthesizer) finishChapter(group []pair, position int) Chapter {
	descriptions := make([]string, 0, len(group))
	frequency := make(map[string]int)
	order := make([]string, 0)
	for _, p := range group {
		descriptions = append(descriptions, strings.TrimSpace(p.res.Description))
		for _, term := range append(append([]string{}, p.res.VisualElements...), p.res.Actions...) {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" {
				continue
			}
			if frequency[key] == 0 {
				order = append(order, key)
			}
			frequency[key]++
		}
	}

	title := chapterTitle(frequency, order)
	if title == "" {
		title = fmt.Sprintf("Part %d", position)
	}

	return Chapter{
		Timestamp:   group[0].unit.StartOffset,
		Title:       title,
		Description: textutil.Condense(strings.Join(descriptions, " "), 200),
	}
}

// chapterTitle picks the three most frequent element/action terms, ties
// broken by first occurrence.
func chapterTitle(frequency map[string]int, order []string) string {
	if len(order) == 0 {
		return ""
	}
	ranked := append([]string(nil), order...)
	position := make(map[string]int, len(order))
	for i, term := range order {
		position[term] = i
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if frequency[ranked[i]] != frequency[ranked[j]] {
			return frequency[ranked[i]] > frequency[ranked[j]]
		}
		return position[ranked[i]] < position[ranked[j]]
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return titleCaser.String(strings.Join(ranked, ", "))
}
