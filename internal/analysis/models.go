package analysis

// UnitAnalysis is one unit's semantic result. Created once by the analyzer
// and never mutated afterwards; sequences are ordered by the unit's start
// offset.
type UnitAnalysis struct {
	UnitID         string   `json:"unit_id"`
	Description    string   `json:"description"`
	VisualElements []string `json:"visual_elements,omitempty"`
	Actions        []string `json:"actions,omitempty"`
	Context        string   `json:"context,omitempty"`
	Confidence     float64  `json:"confidence"`
	ProviderCost   float64  `json:"provider_cost,omitempty"`
}

// IsFallback reports whether this analysis is the degraded substitute
// produced after retry exhaustion. Fallbacks always carry zero confidence.
func (a UnitAnalysis) IsFallback() bool {
	return a.Confidence == 0
}
