package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSuggestion struct {
	WeakestMetrics   []string `json:"weakest_metrics"`
	RemoveStrategies []string `json:"remove_strategies"`
	AddStrategies    []string `json:"add_strategies"`
}

func TestParseDirectJSON(t *testing.T) {
	input := `{"weakest_metrics": ["structure"], "remove_strategies": [], "add_strategies": ["structured_sections"]}`

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"structure"}, result.Data.WeakestMetrics)
	assert.Equal(t, []string{"structured_sections"}, result.Data.AddStrategies)
}

func TestParseFencedJSON(t *testing.T) {
	input := "```json\n{\"weakest_metrics\": [\"semantic\"], \"add_strategies\": [\"expert_role\"]}\n```"

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"semantic"}, result.Data.WeakestMetrics)
}

func TestParseFencedWithoutLanguageTag(t *testing.T) {
	input := "```\n{\"weakest_metrics\": [\"content\"]}\n```"

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"content"}, result.Data.WeakestMetrics)
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	input := `Based on the evaluation, here is my suggestion:

{"weakest_metrics": ["structure", "content"], "remove_strategies": ["casual_tone"]}

This should improve the next iteration.`

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"structure", "content"}, result.Data.WeakestMetrics)
	assert.Equal(t, []string{"casual_tone"}, result.Data.RemoveStrategies)
}

func TestParseTrailingCommas(t *testing.T) {
	input := `{"weakest_metrics": ["semantic",], "add_strategies": ["action_items",],}`

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"semantic"}, result.Data.WeakestMetrics)
}

func TestParseUnquotedKeys(t *testing.T) {
	input := `{weakest_metrics: ["semantic"], add_strategies: ["action_items"]}`

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"action_items"}, result.Data.AddStrategies)
}

func TestParseWithComments(t *testing.T) {
	input := `{
		"weakest_metrics": ["structure"], // the weakest area
		/* strategies to drop */
		"remove_strategies": ["verbose_style"]
	}`

	result := Parse[testSuggestion](input, "test")
	require.True(t, result.Success)
	assert.Equal(t, []string{"verbose_style"}, result.Data.RemoveStrategies)
}

func TestParseArray(t *testing.T) {
	input := "Boundaries follow.\n\n[{\"weakest_metrics\": [\"a\"]}, {\"weakest_metrics\": [\"b\"]}]"

	result := Parse[[]testSuggestion](input, "test")
	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
	assert.Equal(t, []string{"b"}, result.Data[1].WeakestMetrics)
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"prose only", "I could not produce a suggestion this round."},
		{"truncated", `{"weakest_metrics": ["structure", "cont`},
		{"oversize", "{" + strings.Repeat(" ", maxParseInput) + "}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Parse[testSuggestion](tc.input, "test")
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestParseOrDefault(t *testing.T) {
	fallback := testSuggestion{WeakestMetrics: []string{"overall_score"}}

	got := ParseOrDefault("not json at all", fallback, "test")
	assert.Equal(t, fallback, got)

	got = ParseOrDefault(`{"weakest_metrics": ["semantic"]}`, fallback, "test")
	assert.Equal(t, []string{"semantic"}, got.WeakestMetrics)
}

func TestExtractJSONPrefersLeadingType(t *testing.T) {
	// An input starting with [ must extract the array, not the inner object.
	input := `[{"weakest_metrics": ["x"]}]`
	assert.Equal(t, input, extractJSON(input))
}

func TestCleanupJSONLeavesApostrophesAlone(t *testing.T) {
	input := `{"rationale": "the chair's summary was vague"}`
	assert.Equal(t, input, cleanupJSON(input))
}
