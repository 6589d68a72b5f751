package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/types"
)

const sampleMinutes = `## 會議記錄

## 討論事項
- 討論了第三季的產品報告與提案
- 負責人提出執行建議

## 決議事項
1. 通過預算提案
2. **期限**設定為下月底

## 待辦事項
- 整理會議報告
`

func TestTokenizeMixedLanguage(t *testing.T) {
	tokens := tokenize("Q3 報告 review meeting")
	assert.Equal(t, []string{"q3", "報", "告", "review", "meeting"}, tokens)
}

func TestSemanticSimilarityBounds(t *testing.T) {
	assert.InDelta(t, 1.0, SemanticSimilarity(sampleMinutes, sampleMinutes), 1e-9)
	assert.Zero(t, SemanticSimilarity("alpha beta", "gamma delta"))
	assert.Zero(t, SemanticSimilarity("", sampleMinutes))

	partial := SemanticSimilarity("討論 預算 提案", sampleMinutes)
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestContentOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, ContentOverlap(sampleMinutes, sampleMinutes), 1e-9)
	assert.Zero(t, ContentOverlap("one two three", "four five six"))
	assert.Zero(t, ContentOverlap("", "anything"))

	// Single-token texts fall back to unigram overlap.
	assert.InDelta(t, 1.0, ContentOverlap("budget", "budget"), 1e-9)

	partial := ContentOverlap("the budget proposal passed", "the budget proposal was rejected")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}

func TestStructureScore(t *testing.T) {
	full := StructureScore(sampleMinutes)
	bare := StructureScore("short note about nothing in particular")

	assert.Greater(t, full, bare)
	assert.Zero(t, StructureScore("   "))

	for _, s := range []float64{full, bare} {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestStructureScoreRewardsSectionsAndKeywords(t *testing.T) {
	withSections := "## 會議\n## 討論\n## 決議\n## 待辦\n"
	withoutSections := "some plain unrelated text body"

	assert.Greater(t, sectionScore(strings.ToLower(withSections)), sectionScore(withoutSections))
	assert.Equal(t, 1.0, sectionScore(strings.ToLower(withSections)))
}

func TestCompositeWithReference(t *testing.T) {
	c := NewComposite(Weights{Semantic: 0.3, Content: 0.3, Structure: 0.4})

	scores := c.Score(sampleMinutes, sampleMinutes)
	require.Contains(t, scores, MetricSemantic)
	require.Contains(t, scores, MetricContent)
	require.Contains(t, scores, MetricStructure)
	require.Contains(t, scores, types.MetricOverall)

	for name, v := range scores {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}

	// Identical texts max out the reference-based metrics, so overall is
	// bounded below by the non-structure weight share.
	assert.GreaterOrEqual(t, scores[types.MetricOverall], 0.6*1.0*0.99)
}

func TestCompositeWithoutReference(t *testing.T) {
	c := NewComposite(Weights{Semantic: 0.3, Content: 0.3, Structure: 0.4})

	scores := c.Score(sampleMinutes, "")
	assert.NotContains(t, scores, MetricSemantic)
	assert.NotContains(t, scores, MetricContent)
	assert.Equal(t, scores[MetricStructure], scores[types.MetricOverall])
}

func TestCompositeZeroWeightsDoNotPanic(t *testing.T) {
	c := NewComposite(Weights{})
	scores := c.Score(sampleMinutes, sampleMinutes)
	assert.GreaterOrEqual(t, scores[types.MetricOverall], 0.0)
}
