// Package scoring implements the numeric quality backends: a
// semantic-similarity scorer, an n-gram content-overlap scorer, and a
// structural-heuristic scorer, combined into an overall score by a
// weighted sum. All metrics land in [0, 1].
package scoring

import (
	"strings"
	"unicode"

	"github.com/colabbrave/minuteforge/internal/types"
)

// Metric names emitted by the composite scorer.
const (
	MetricSemantic  = "semantic_score"
	MetricContent   = "content_score"
	MetricStructure = "structure_score"
)

// Scorer computes quality metrics for candidate minutes. reference may
// be empty, in which case only reference-free metrics contribute.
type Scorer interface {
	Score(candidate, reference string) map[string]float64
}

// Weights configures the weighted sum producing the overall score.
type Weights struct {
	Semantic  float64
	Content   float64
	Structure float64
}

// Composite combines the three scorers. With a reference, the overall
// score is the weighted sum of all three metrics; without one, the
// structural heuristics stand alone.
type Composite struct {
	weights Weights
}

// NewComposite creates a composite scorer with the given weights.
func NewComposite(w Weights) *Composite {
	return &Composite{weights: w}
}

// Score implements Scorer.
func (c *Composite) Score(candidate, reference string) map[string]float64 {
	scores := map[string]float64{
		MetricStructure: StructureScore(candidate),
	}

	if strings.TrimSpace(reference) == "" {
		scores[types.MetricOverall] = scores[MetricStructure]
		return scores
	}

	scores[MetricSemantic] = SemanticSimilarity(candidate, reference)
	scores[MetricContent] = ContentOverlap(candidate, reference)

	total := c.weights.Semantic + c.weights.Content + c.weights.Structure
	if total <= 0 {
		total = 1
	}
	scores[types.MetricOverall] = (c.weights.Semantic*scores[MetricSemantic] +
		c.weights.Content*scores[MetricContent] +
		c.weights.Structure*scores[MetricStructure]) / total

	return scores
}

// tokenize splits text into comparison units: runs of Latin letters and
// digits are lowercased words, and each CJK character is its own token
// since meeting records are frequently Chinese and word boundaries are
// not whitespace there.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
