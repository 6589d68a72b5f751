// Package types defines the core domain records shared across the
// optimization engine: strategies, iteration results, improvement
// suggestions, and segmentation artifacts.
package types

import "slices"

// Dimension identifies an independent prompt-construction concern.
// Every strategy belongs to exactly one dimension; the selector combines
// at most one or two strategies per dimension at a time.
type Dimension string

const (
	DimensionRole      Dimension = "role"
	DimensionStructure Dimension = "structure"
	DimensionContent   Dimension = "content"
	DimensionFormat    Dimension = "format"
	DimensionLanguage  Dimension = "language"
	DimensionQuality   Dimension = "quality"
)

// Dimensions lists all dimensions in the fixed exploration order used by
// the selector.
var Dimensions = []Dimension{
	DimensionRole,
	DimensionStructure,
	DimensionContent,
	DimensionFormat,
	DimensionLanguage,
	DimensionQuality,
}

// Valid reports whether d is one of the known dimensions.
func (d Dimension) Valid() bool {
	return slices.Contains(Dimensions, d)
}

// Strategy is a named, reusable instruction fragment used to construct a
// generation prompt. Strategies are loaded once at startup and never
// mutated afterward; the dimension is an explicit field, never inferred
// from the id.
type Strategy struct {
	ID             string    `json:"id"`
	Dimension      Dimension `json:"dimension"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ConflictsWith  []string  `json:"conflicts_with,omitempty"`
	PromptFragment string    `json:"prompt_fragment"`

	// Optional components consumed by prompt assembly.
	RoleDefinition string   `json:"role_definition,omitempty"` // role dimension
	Sections       []string `json:"sections,omitempty"`        // structure dimension
	FormatHint     string   `json:"format_hint,omitempty"`     // format dimension
	ToneHint       string   `json:"tone_hint,omitempty"`       // language dimension
}

// ConflictsWithID reports whether the strategy declares a conflict with
// the given strategy id. Conflicts are declared symmetrically in the
// catalog, but callers should check both directions.
func (s *Strategy) ConflictsWithID(id string) bool {
	return slices.Contains(s.ConflictsWith, id)
}

// Combination is an ordered set of strategy ids. Invariants maintained by
// the selector: no two members conflict, and 2 <= len <= max_count.
type Combination []string

// Contains reports whether the combination includes the given id.
func (c Combination) Contains(id string) bool {
	return slices.Contains(c, id)
}

// Clone returns an independent copy of the combination.
func (c Combination) Clone() Combination {
	return slices.Clone(c)
}
