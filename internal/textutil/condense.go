package textutil

import "strings"

var sentenceTerminators = ".!?"

// Condense shortens text to at most limit runes, preferring to cut at the
// nearest sentence boundary at or before the limit. When no boundary fits,
// the text is hard-truncated with an ellipsis; limits too small to hold
// one are truncated bare.
func Condense(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if limit <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return trimmed
	}

	window := runes[:limit]
	for i := len(window) - 1; i >= 0; i-- {
		if strings.ContainsRune(sentenceTerminators, window[i]) {
			return strings.TrimSpace(string(window[:i+1]))
		}
	}

	if limit <= 3 {
		return string(window)
	}
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountSentences returns the number of sentence terminator runs in text.
// Text with content but no terminator counts as one sentence.
func CountSentences(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	count := 0
	inRun := false
	for _, r := range trimmed {
		if strings.ContainsRune(sentenceTerminators, r) {
			if !inRun {
				count++
			}
			inRun = true
			continue
		}
		inRun = false
	}
	if count == 0 {
		return 1
	}
	return count
}
