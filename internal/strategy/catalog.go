// Package strategy holds the prompt-construction strategy catalog and
// the combination selector driving each optimization round.
package strategy

import (
	"fmt"

	"github.com/colabbrave/minuteforge/internal/types"
)

// Catalog is the static registry of strategies. Loaded once at startup
// and never mutated; every id referenced by a suggestion or combination
// is validated against it.
type Catalog struct {
	byID    map[string]*types.Strategy
	ordered []*types.Strategy
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	c, err := newCatalog(defaultStrategies())
	if err != nil {
		// The built-in set is fixed at compile time, so an invalid
		// catalog is a programming error.
		panic(err)
	}
	return c
}

func newCatalog(strategies []*types.Strategy) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*types.Strategy, len(strategies))}
	for _, s := range strategies {
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate strategy id %q", s.ID)
		}
		c.byID[s.ID] = s
		c.ordered = append(c.ordered, s)
	}
	for _, s := range strategies {
		for _, other := range s.ConflictsWith {
			if _, ok := c.byID[other]; !ok {
				return nil, fmt.Errorf("strategy %q conflicts with unknown id %q", s.ID, other)
			}
		}
	}
	return c, nil
}

// Get returns the strategy with the given id.
func (c *Catalog) Get(id string) (*types.Strategy, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Has reports whether the id exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every strategy in registration order.
func (c *Catalog) All() []*types.Strategy {
	return c.ordered
}

// ByDimension returns the ids of all strategies in a dimension, in
// registration order. Registration order is the deterministic cycling
// order used by the selector.
func (c *Catalog) ByDimension(d types.Dimension) []string {
	var ids []string
	for _, s := range c.ordered {
		if s.Dimension == d {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Dimension returns the dimension of a strategy id, or "" if unknown.
func (c *Catalog) Dimension(id string) types.Dimension {
	if s, ok := c.byID[id]; ok {
		return s.Dimension
	}
	return ""
}

// Baseline returns the starting combination: one strategy per core
// dimension (Role, Structure, Content).
func (c *Catalog) Baseline() types.Combination {
	return types.Combination{baselineRole, baselineStructure, baselineContent}
}

// Conflicts reports whether two strategies conflict, checking both
// conflict sets so declaration order does not matter.
func (c *Catalog) Conflicts(a, b string) bool {
	if sa, ok := c.byID[a]; ok && sa.ConflictsWithID(b) {
		return true
	}
	if sb, ok := c.byID[b]; ok && sb.ConflictsWithID(a) {
		return true
	}
	return false
}

// ConflictsWithAny reports whether id conflicts with any member of the
// given combination.
func (c *Catalog) ConflictsWithAny(id string, combo types.Combination) bool {
	for _, member := range combo {
		if c.Conflicts(id, member) {
			return true
		}
	}
	return false
}

// Baseline strategy ids.
const (
	baselineRole      = "role_professional_secretary"
	baselineStructure = "structure_standard_sections"
	baselineContent   = "content_key_points"
)

func defaultStrategies() []*types.Strategy {
	return []*types.Strategy{
		// Role: who the generator should act as.
		{
			ID:             baselineRole,
			Dimension:      types.DimensionRole,
			Name:           "Professional secretary",
			Description:    "Write as an experienced meeting secretary producing formal minutes.",
			RoleDefinition: "You are an experienced meeting secretary who produces accurate, formal meeting minutes.",
			PromptFragment: "Record decisions and assignments precisely, attribute statements to speakers where the transcript allows, and keep a neutral register.",
		},
		{
			ID:             "role_domain_expert",
			Dimension:      types.DimensionRole,
			Name:           "Domain expert",
			Description:    "Write as a subject-matter expert who understands the technical content.",
			RoleDefinition: "You are a subject-matter expert documenting this meeting; you understand the technical context behind each discussion.",
			PromptFragment: "Use correct domain terminology and make implicit technical context explicit where the transcript is ambiguous.",
		},
		{
			ID:             "role_executive_assistant",
			Dimension:      types.DimensionRole,
			Name:           "Executive assistant",
			Description:    "Write for executive readers who need decisions and owners at a glance.",
			RoleDefinition: "You are an executive assistant preparing minutes for leadership review.",
			PromptFragment: "Surface decisions, owners, and deadlines first; keep background discussion brief.",
		},

		// Structure: how the document is organized.
		{
			ID:             baselineStructure,
			Dimension:      types.DimensionStructure,
			Name:           "Standard sections",
			Description:    "Organize into the standard meeting-minutes sections.",
			Sections:       []string{"會議資訊", "討論事項", "決議事項", "待辦事項"},
			PromptFragment: "Organize the minutes into clearly separated sections with markdown headings.",
			ConflictsWith:  []string{"structure_timeline"},
		},
		{
			ID:             "structure_timeline",
			Dimension:      types.DimensionStructure,
			Name:           "Timeline structure",
			Description:    "Order content chronologically as the meeting unfolded.",
			Sections:       []string{"會議資訊", "議程紀錄", "決議事項", "待辦事項"},
			PromptFragment: "Present the discussion in chronological order, preserving the flow of the meeting.",
			ConflictsWith:  []string{baselineStructure, "structure_topic_grouping"},
		},
		{
			ID:             "structure_topic_grouping",
			Dimension:      types.DimensionStructure,
			Name:           "Topic grouping",
			Description:    "Group scattered discussion of the same topic into one block.",
			Sections:       []string{"會議資訊", "議題分組", "決議事項", "待辦事項"},
			PromptFragment: "Group all discussion of the same topic together even when it was revisited at different times.",
			ConflictsWith:  []string{"structure_timeline"},
		},

		// Content: what to include and how deeply.
		{
			ID:             baselineContent,
			Dimension:      types.DimensionContent,
			Name:           "Key-point summary",
			Description:    "Condense discussion into key points rather than transcribing.",
			PromptFragment: "Summarize each discussion item into its essential points; omit small talk and repetition.",
			ConflictsWith:  []string{"content_detailed_discussion"},
		},
		{
			ID:             "content_detailed_discussion",
			Dimension:      types.DimensionContent,
			Name:           "Detailed discussion",
			Description:    "Preserve the substance of each speaker's argument.",
			PromptFragment: "Record the substance of each position raised, including dissenting views and their reasoning.",
			ConflictsWith:  []string{baselineContent},
		},
		{
			ID:             "content_action_items",
			Dimension:      types.DimensionContent,
			Name:           "Action-item focus",
			Description:    "Emphasize actionable outcomes: owner, task, deadline.",
			PromptFragment: "For every action item, state the owner, the concrete task, and the deadline; flag items missing any of the three.",
		},

		// Format: visual presentation.
		{
			ID:             "format_formal_template",
			Dimension:      types.DimensionFormat,
			Name:           "Formal template",
			Description:    "Use the formal administrative document layout.",
			FormatHint:     "採用正式公文格式",
			PromptFragment: "Follow a formal administrative layout with numbered resolutions.",
			ConflictsWith:  []string{"format_concise"},
		},
		{
			ID:             "format_concise",
			Dimension:      types.DimensionFormat,
			Name:           "Concise format",
			Description:    "Use a compact, practical layout.",
			FormatHint:     "採用簡潔實用的格式",
			PromptFragment: "Keep the layout compact: short bullet lists, no boilerplate.",
			ConflictsWith:  []string{"format_formal_template", "format_tabular"},
		},
		{
			ID:             "format_tabular",
			Dimension:      types.DimensionFormat,
			Name:           "Tabular format",
			Description:    "Present decisions and action items as tables.",
			FormatHint:     "重要資訊請使用表格形式呈現",
			PromptFragment: "Render decisions and action items as markdown tables with columns for item, owner, and deadline.",
			ConflictsWith:  []string{"format_concise"},
		},

		// Language: register and voice.
		{
			ID:             "language_formal_tone",
			Dimension:      types.DimensionLanguage,
			Name:           "Formal tone",
			Description:    "Formal, objective register.",
			ToneHint:       "使用正式、客觀的語調",
			PromptFragment: "Use a formal, objective tone throughout; avoid colloquialisms.",
			ConflictsWith:  []string{"language_natural_tone"},
		},
		{
			ID:             "language_natural_tone",
			Dimension:      types.DimensionLanguage,
			Name:           "Natural tone",
			Description:    "Approachable, natural register.",
			ToneHint:       "保持自然、親和的語調",
			PromptFragment: "Keep the language natural and approachable while staying professional.",
			ConflictsWith:  []string{"language_formal_tone"},
		},
		{
			ID:             "language_active_voice",
			Dimension:      types.DimensionLanguage,
			Name:           "Active voice",
			Description:    "Prefer active voice with explicit subjects.",
			ToneHint:       "優先使用主動語態",
			PromptFragment: "Prefer active voice; make the acting party explicit in every sentence.",
		},

		// Quality: cross-cutting checks.
		{
			ID:             "quality_accuracy_check",
			Dimension:      types.DimensionQuality,
			Name:           "Accuracy check",
			Description:    "Verify names, numbers, and dates against the transcript.",
			PromptFragment: "Before finalizing, verify that every name, number, and date matches the transcript exactly.",
		},
		{
			ID:             "quality_completeness_check",
			Dimension:      types.DimensionQuality,
			Name:           "Completeness check",
			Description:    "Ensure every agenda topic and decision is covered.",
			PromptFragment: "Before finalizing, confirm every discussed topic and every decision appears in the minutes.",
		},
	}
}
