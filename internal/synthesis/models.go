package synthesis

// Importance ranks a key moment.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Method records which narrative strategy actually produced the output.
type Method string

const (
	MethodRuleBased Method = "rule_based"
	MethodEnhanced  Method = "enhanced"
)

// KeyMoment marks a notable point in the input.
type KeyMoment struct {
	Timestamp   float64    `json:"timestamp"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
}

// Chapter is a contiguous group of units presented as one narrative section.
type Chapter struct {
	Timestamp   float64 `json:"timestamp"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Metadata aggregates measurable properties of a synthesized description.
type Metadata struct {
	WordCount         int     `json:"word_count"`
	SentenceCount     int     `json:"sentence_count"`
	AverageConfidence float64 `json:"average_confidence"`
	TotalProviderCost float64 `json:"total_provider_cost"`
	DistinctElements  int     `json:"distinct_elements"`
	DistinctActions   int     `json:"distinct_actions"`
	Method            Method  `json:"method"`
	TotalDuration     float64 `json:"total_duration"`
	Language          string  `json:"language,omitempty"`
}

// Description is the derived, read-only aggregate attached to a completed
// job. Computed once from a complete analyses sequence; immutable afterward.
type Description struct {
	Narrative     string      `json:"narrative"`
	Timestamped   string      `json:"timestamped"`
	Technical     string      `json:"technical"`
	Accessibility string      `json:"accessibility"`
	KeyMoments    []KeyMoment `json:"key_moments,omitempty"`
	Highlights    []string    `json:"highlights,omitempty"`
	Chapters      []Chapter   `json:"chapters,omitempty"`
	Metadata      Metadata    `json:"metadata"`
}
