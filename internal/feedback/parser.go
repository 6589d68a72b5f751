// Package feedback turns LLM-authored critiques into validated
// improvement suggestions the selector can consume.
package feedback

import (
	"github.com/colabbrave/minuteforge/internal/ai"
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/strategy"
	"github.com/colabbrave/minuteforge/internal/types"
)

// critiqueWire is the JSON shape the judge is prompted to emit.
type critiqueWire struct {
	WeakestMetrics   []string `json:"weakest_metrics"`
	RemoveStrategies []string `json:"remove_strategies"`
	AddStrategies    []string `json:"add_strategies"`
	DimensionFocus   string   `json:"dimension_focus"`
	Rationale        string   `json:"rationale"`
}

// Parser validates raw critique text against the strategy catalog. It
// never fails: malformed input degrades to a neutral suggestion and the
// selector takes its deterministic path.
type Parser struct {
	catalog *strategy.Catalog
}

// NewParser creates a parser over the given catalog.
func NewParser(catalog *strategy.Catalog) *Parser {
	return &Parser{catalog: catalog}
}

// Parse extracts and validates an improvement suggestion from raw judge
// output. The result is always structurally complete: absent fields are
// empty collections, so callers never null-check.
func (p *Parser) Parse(raw string) types.ImprovementSuggestion {
	result := ai.Parse[critiqueWire](raw, "improvement critique")
	if !result.Success {
		logger.Warn("critique not parsable, using neutral suggestion: %s", result.Error)
		return Neutral()
	}
	return p.validate(result.Data)
}

// Neutral is the suggestion used when no critique is available. It is
// empty but structurally complete.
func Neutral() types.ImprovementSuggestion {
	return types.ImprovementSuggestion{
		WeakestMetrics:   []string{},
		RemoveStrategies: []string{},
		AddStrategies:    []string{},
	}
}

// validate drops unknown strategy ids individually (never the whole
// suggestion) and applies a greedy conflict filter over the additions:
// each is accepted in given order and checked against previously accepted
// ones.
func (p *Parser) validate(wire critiqueWire) types.ImprovementSuggestion {
	suggestion := Neutral()
	suggestion.WeakestMetrics = append(suggestion.WeakestMetrics, wire.WeakestMetrics...)
	suggestion.Rationale = wire.Rationale

	if focus := types.Dimension(wire.DimensionFocus); focus.Valid() {
		suggestion.DimensionFocus = focus
	} else if wire.DimensionFocus != "" {
		logger.Debug("dropping unknown dimension focus %q", wire.DimensionFocus)
	}

	for _, id := range wire.RemoveStrategies {
		if !p.catalog.Has(id) {
			logger.Warn("suggested removal of unknown strategy %q, dropping", id)
			continue
		}
		suggestion.RemoveStrategies = append(suggestion.RemoveStrategies, id)
	}

	for _, id := range wire.AddStrategies {
		if !p.catalog.Has(id) {
			logger.Warn("suggested unknown strategy %q, dropping", id)
			continue
		}
		if conflictsWithAccepted(p.catalog, id, suggestion.AddStrategies) {
			logger.Info("suggested strategy %q conflicts with an earlier accepted one, skipping", id)
			continue
		}
		suggestion.AddStrategies = append(suggestion.AddStrategies, id)
	}

	return suggestion
}

func conflictsWithAccepted(catalog *strategy.Catalog, id string, accepted []string) bool {
	for _, other := range accepted {
		if catalog.Conflicts(id, other) {
			return true
		}
	}
	return false
}
