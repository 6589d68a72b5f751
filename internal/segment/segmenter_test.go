package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/config"
	"github.com/colabbrave/minuteforge/internal/types"
)

// fakeJudge replies with the same JSON blob for every prompt; each call
// site extracts only the fields it knows. err, when set, fails every call.
type fakeJudge struct {
	reply string
	err   error
	calls int
}

func (f *fakeJudge) Judge(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// omniReply builds one JSON object covering every judge call site.
func omniReply(score, confidence float64) string {
	return fmt.Sprintf(`{
		"semantic_completeness": %[1]f, "topic_consistency": %[1]f,
		"logical_coherence": %[1]f, "overall_score": %[1]f,
		"boundary_score": %[1]f, "is_natural_break": true,
		"optimized_start": 0, "optimized_end": 0, "confidence": %[2]f,
		"content_completeness": %[1]f, "redundancy_level": 2, "overall_coverage": %[1]f,
		"priority": "medium", "action_type": "recheck", "specific_suggestions": ["review"]
	}`, score, confidence)
}

func segCfg() config.SegmentationConfig {
	return config.SegmentationConfig{
		MaxSegmentLength: 4000,
		Overlap:          200,
		QualityThreshold: 6.0,
		EnableRefinement: true,
	}
}

func TestSegmentShortInputSkipsJudgeEntirely(t *testing.T) {
	judge := &fakeJudge{reply: omniReply(9, 0.9)}
	s := NewSegmenter(judge, segCfg())

	text := proseOfLength(3000)
	segments, report := s.Segment(context.Background(), text)

	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0].Text)
	assert.Nil(t, report)
	assert.Zero(t, judge.calls, "single-segment input must make no judge calls")
}

func TestSegmentAIPathAcceptedAboveThreshold(t *testing.T) {
	judge := &fakeJudge{reply: omniReply(9, 0.2)}
	s := NewSegmenter(judge, segCfg())

	segments, report := s.Segment(context.Background(), proseOfLength(9000))

	require.NotNil(t, report)
	assert.True(t, report.Acceptable(6.0))
	assert.Greater(t, judge.calls, 0)
	for _, seg := range segments {
		assert.InDelta(t, 9.0, seg.Analysis.OverallScore, 1e-9, "segment %d not analyzed", seg.ID)
	}
}

func TestSegmentFallsBackWhenQualityGateFails(t *testing.T) {
	// Low coherence scores drag individual quality down and flood the
	// report with issues, forcing the deterministic fallback.
	judge := &fakeJudge{reply: omniReply(2, 0.1)}
	s := NewSegmenter(judge, segCfg())

	segments, report := s.Segment(context.Background(), proseOfLength(9000))

	require.NotNil(t, report)
	require.GreaterOrEqual(t, len(segments), 2)
	for _, seg := range segments {
		assert.False(t, seg.AIOptimized)
		assert.Zero(t, seg.Analysis.OverallScore, "fallback segments are not AI-analyzed")
	}
}

func TestSegmentWithoutJudgeIsDeterministic(t *testing.T) {
	s := NewSegmenter(nil, segCfg())

	segments, report := s.Segment(context.Background(), proseOfLength(9000))
	require.NotNil(t, report)
	assert.GreaterOrEqual(t, len(segments), 2)
	assert.InDelta(t, neutralScore, report.Boundary.Average, 1e-9)
}

func TestRefineBoundariesAppliesConfidentAdjustment(t *testing.T) {
	text := proseOfLength(9000)
	segments := DeterministicSplit(text, 4000, 200)
	require.GreaterOrEqual(t, len(segments), 2)

	original := segments[1].Start
	// The judge shifts the relative start by 50 with high confidence.
	judge := &fakeJudge{reply: fmt.Sprintf(
		`{"optimized_start": %d, "optimized_end": %d, "confidence": 0.9}`,
		(original-max(0, original-contextRadius))+50,
		segments[1].End-max(0, original-contextRadius),
	)}

	refined := RefineBoundaries(context.Background(), judge, text, segments)
	assert.Equal(t, original+50, refined[1].Start)
	assert.True(t, refined[1].AIOptimized)
	assert.False(t, refined[0].AIOptimized, "first segment boundary is never refined")
}

func TestRefineBoundariesRejectsLowConfidence(t *testing.T) {
	text := proseOfLength(9000)
	segments := DeterministicSplit(text, 4000, 200)
	before := segments[1].Start

	judge := &fakeJudge{reply: `{"optimized_start": 0, "optimized_end": 500, "confidence": 0.5}`}
	refined := RefineBoundaries(context.Background(), judge, text, segments)

	assert.Equal(t, before, refined[1].Start)
	assert.False(t, refined[1].AIOptimized)
}

func TestRefineBoundariesSurvivesJudgeFailure(t *testing.T) {
	text := proseOfLength(9000)
	segments := DeterministicSplit(text, 4000, 200)
	want := make([]int, len(segments))
	for i, seg := range segments {
		want[i] = seg.Start
	}

	judge := &fakeJudge{err: errors.New("judge unavailable")}
	refined := RefineBoundaries(context.Background(), judge, text, segments)

	for i, seg := range refined {
		assert.Equal(t, want[i], seg.Start, "segment %d boundary changed despite judge failure", i+1)
		assert.False(t, seg.AIOptimized)
	}
}

func TestAnalyzeCoherenceFallsBackToNeutral(t *testing.T) {
	seg := &types.Segment{ID: 1, Text: strings.Repeat("a", 500)}

	failing := &fakeJudge{err: errors.New("down")}
	analysis := AnalyzeCoherence(context.Background(), failing, seg)
	assert.InDelta(t, neutralScore, analysis.OverallScore, 1e-9)

	garbled := &fakeJudge{reply: "I cannot answer in JSON, sorry."}
	analysis = AnalyzeCoherence(context.Background(), garbled, seg)
	assert.InDelta(t, neutralScore, analysis.SemanticCompleteness, 1e-9)
}

func TestAnalyzeCoherenceClampsScores(t *testing.T) {
	seg := &types.Segment{ID: 1, Text: "short"}
	judge := &fakeJudge{reply: `{"semantic_completeness": 15, "topic_consistency": -3, "logical_coherence": 7, "overall_score": 11}`}

	analysis := AnalyzeCoherence(context.Background(), judge, seg)
	assert.Equal(t, 10.0, analysis.SemanticCompleteness)
	assert.Equal(t, 0.0, analysis.TopicConsistency)
	assert.Equal(t, 10.0, analysis.OverallScore)
}
