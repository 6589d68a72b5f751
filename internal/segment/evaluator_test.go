package segment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/types"
)

func segOfLength(id, n int) *types.Segment {
	return &types.Segment{ID: id, Text: strings.Repeat("a", n), Start: 0, End: n}
}

func TestBalanceQualityEqualLengths(t *testing.T) {
	segments := []*types.Segment{segOfLength(1, 1000), segOfLength(2, 1000), segOfLength(3, 1000)}

	q := balanceQuality(segments)
	assert.InDelta(t, 0, q.CV, 1e-9)
	assert.InDelta(t, 10, q.Score, 1e-9)
	assert.Equal(t, 1000, q.MinLength)
	assert.Equal(t, 1000, q.MaxLength)
}

func TestBalanceQualitySkewedLengths(t *testing.T) {
	segments := []*types.Segment{segOfLength(1, 200), segOfLength(2, 4000)}

	q := balanceQuality(segments)
	assert.Greater(t, q.CV, 1.0)
	assert.Zero(t, q.Score, "cv above 0.5 floors the balance score")
}

func TestDetectIssuesLengthRules(t *testing.T) {
	segments := []*types.Segment{
		segOfLength(1, 50),   // too short
		segOfLength(2, 3000), // fine
		segOfLength(3, 6500), // too long
	}

	issues := DetectIssues(segments)
	require.Len(t, issues, 2)
	assert.Equal(t, types.IssueTooShort, issues[0].Kind)
	assert.Equal(t, 1, issues[0].SegmentID)
	assert.Equal(t, types.IssueTooLong, issues[1].Kind)
	assert.Equal(t, 3, issues[1].SegmentID)
}

func TestDetectIssuesDanglingPunctuation(t *testing.T) {
	seg := &types.Segment{ID: 1, Text: "，" + strings.Repeat("正", 200)}

	issues := DetectIssues([]*types.Segment{seg})
	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueBoundaryPunctuation, issues[0].Kind)
	assert.Equal(t, types.SeverityLow, issues[0].Severity)
}

func TestDetectIssuesCoherenceRules(t *testing.T) {
	analyzed := segOfLength(1, 500)
	analyzed.Analysis = types.SegmentAnalysis{
		SemanticCompleteness: 2.5, // below poor -> high severity
		TopicConsistency:     4.0, // below acceptable -> low severity
		LogicalCoherence:     8.0,
		OverallScore:         5.0,
	}
	unanalyzed := segOfLength(2, 500)

	issues := DetectIssues([]*types.Segment{analyzed, unanalyzed})
	require.Len(t, issues, 2)

	assert.Equal(t, types.IssueSemanticIncomplete, issues[0].Kind)
	assert.Equal(t, types.SeverityHigh, issues[0].Severity)
	assert.Equal(t, types.IssueTopicInconsistent, issues[1].Kind)
	assert.Equal(t, types.SeverityLow, issues[1].Severity)
}

func TestEvaluateWithoutJudgeMakesNoCalls(t *testing.T) {
	segments := []*types.Segment{segOfLength(1, 2000), segOfLength(2, 2000)}

	report := NewEvaluator(nil).Evaluate(context.Background(), segments, strings.Repeat("a", 4000))
	require.NotNil(t, report)
	assert.Equal(t, 2, report.SegmentCount)
	assert.InDelta(t, neutralScore, report.Boundary.Average, 1e-9)
	require.NotNil(t, report.Coverage)
	assert.Greater(t, report.Coverage.LengthRatio, 0.9)
	assert.GreaterOrEqual(t, report.OverallQuality, 0.0)
	assert.LessOrEqual(t, report.OverallQuality, 10.0)
}

func TestEvaluateSingleSegmentBoundaryIsPerfect(t *testing.T) {
	report := NewEvaluator(nil).Evaluate(context.Background(), []*types.Segment{segOfLength(1, 2000)}, "")
	assert.Equal(t, 10.0, report.Boundary.Average)
	assert.Zero(t, report.Boundary.Count)
	assert.Nil(t, report.Coverage)
}

func TestOverallQualityPenalizesIssues(t *testing.T) {
	clean := &types.SegmentationReport{
		Boundary: types.BoundaryQuality{Average: 8},
		Balance:  types.BalanceQuality{Score: 8},
	}
	dirty := &types.SegmentationReport{
		Boundary: types.BoundaryQuality{Average: 8},
		Balance:  types.BalanceQuality{Score: 8},
		Issues:   make([]types.QualityIssue, 5),
	}
	flooded := &types.SegmentationReport{
		Boundary: types.BoundaryQuality{Average: 8},
		Balance:  types.BalanceQuality{Score: 8},
		Issues:   make([]types.QualityIssue, 50),
	}

	base := overallQuality(clean)
	assert.InDelta(t, base-1.0, overallQuality(dirty), 1e-9, "5 issues cost 1.0")
	assert.InDelta(t, base-2.0, overallQuality(flooded), 1e-9, "penalty caps at 2.0")
}

func TestOverallQualityNormalizesWeights(t *testing.T) {
	// Boundary and balance only: (7*0.3 + 10*0.2) / 0.5 = 8.2
	report := &types.SegmentationReport{
		Boundary: types.BoundaryQuality{Average: 7},
		Balance:  types.BalanceQuality{Score: 10},
	}
	assert.InDelta(t, 8.2, overallQuality(report), 1e-9)
}

func TestGradeBuckets(t *testing.T) {
	assert.Equal(t, "excellent", Grade(9.0))
	assert.Equal(t, "excellent", Grade(8.5))
	assert.Equal(t, "good", Grade(7.3))
	assert.Equal(t, "acceptable", Grade(5.5))
	assert.Equal(t, "needs improvement", Grade(4.0))
}

func TestAdviceWithoutJudgeIsDefault(t *testing.T) {
	short := segOfLength(1, 50)
	report := NewEvaluator(nil).Evaluate(context.Background(), []*types.Segment{short}, "")

	require.Len(t, report.Suggestions, 1)
	assert.Equal(t, 1, report.Suggestions[0].SegmentID)
	assert.Equal(t, "medium", report.Suggestions[0].Priority)
	assert.NotEmpty(t, report.Suggestions[0].Actions)
}
