package types

// ImprovementSuggestion is the validated form of an LLM critique of the
// latest iteration. Absent fields are empty collections, never nil checks
// for the selector to make: the feedback parser always returns a
// structurally complete value.
type ImprovementSuggestion struct {
	WeakestMetrics   []string  `json:"weakest_metrics"`
	RemoveStrategies []string  `json:"remove_strategies"`
	AddStrategies    []string  `json:"add_strategies"`
	DimensionFocus   Dimension `json:"dimension_focus,omitempty"`
	Rationale        string    `json:"rationale,omitempty"`
}

// Empty reports whether the suggestion carries no actionable adjustment.
// The selector treats an empty suggestion the same as having none and
// takes its deterministic fallback path.
func (s ImprovementSuggestion) Empty() bool {
	return len(s.RemoveStrategies) == 0 && len(s.AddStrategies) == 0
}
