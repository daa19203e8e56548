package synthesis

// Options carries the synthesis policy knobs. The thresholds are empirical
// policy, not correctness requirements, so they stay configurable.
type Options struct {
	// TimestampedMaxLength caps each timestamped line's description.
	TimestampedMaxLength int
	// HighlightCap bounds the highlights list.
	HighlightCap int
	// HighConfidence and HighActionCount gate high-importance key moments.
	HighConfidence  float64
	HighActionCount int
	// MediumConfidence and MediumActionCount gate medium importance.
	MediumConfidence  float64
	MediumActionCount int
	// IncludeActionCount admits low-importance units with many actions.
	IncludeActionCount int
	// MinChapterSeconds is the minimum chapter duration; chapters are only
	// produced when total duration reaches twice this value.
	MinChapterSeconds float64
	// ChapterSimilarity is the context word-overlap threshold for keeping a
	// unit in the running chapter.
	ChapterSimilarity float64
}

// DefaultOptions returns the policy defaults.
func DefaultOptions() Options {
	return Options{
		TimestampedMaxLength: 120,
		HighlightCap:         10,
		HighConfidence:       0.9,
		HighActionCount:      3,
		MediumConfidence:     0.7,
		MediumActionCount:    1,
		IncludeActionCount:   2,
		MinChapterSeconds:    30,
		ChapterSimilarity:    0.5,
	}
}

func (o Options) normalized() Options {
	defaults := DefaultOptions()
	if o.TimestampedMaxLength <= 0 {
		o.TimestampedMaxLength = defaults.TimestampedMaxLength
	}
	if o.HighlightCap <= 0 {
		o.HighlightCap = defaults.HighlightCap
	}
	if o.HighConfidence <= 0 {
		o.HighConfidence = defaults.HighConfidence
	}
	if o.HighActionCount <= 0 {
		o.HighActionCount = defaults.HighActionCount
	}
	if o.MediumConfidence <= 0 {
		o.MediumConfidence = defaults.MediumConfidence
	}
	if o.MediumActionCount <= 0 {
		o.MediumActionCount = defaults.MediumActionCount
	}
	if o.IncludeActionCount <= 0 {
		o.IncludeActionCount = defaults.IncludeActionCount
	}
	if o.MinChapterSeconds <= 0 {
		o.MinChapterSeconds = defaults.MinChapterSeconds
	}
	if o.ChapterSimilarity <= 0 {
		o.ChapterSimilarity = defaults.ChapterSimilarity
	}
	return o
}
