package segment

import (
	"context"
	"fmt"

	"github.com/colabbrave/minuteforge/internal/ai"
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

// Judge is the external service asked for qualitative assessments:
// boundary naturalness, segment coherence, and remediation advice. It
// may return free text or JSON embedded in prose; every call site parses
// tolerantly.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

const (
	// contextRadius is how many characters around a boundary are shown
	// to the judge during refinement.
	contextRadius = 200

	// confidenceCutoff gates boundary adjustments: below it the
	// deterministic boundary stands.
	confidenceCutoff = 0.7

	// minRefinedLength is the smallest segment a refined boundary may
	// produce.
	minRefinedLength = 100

	// neutralScore is assumed when the judge is unavailable or its
	// output is unparsable.
	neutralScore = 7.0
)

type boundaryWire struct {
	OptimizedStart int     `json:"optimized_start"`
	OptimizedEnd   int     `json:"optimized_end"`
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"`
}

type coherenceWire struct {
	SemanticCompleteness float64 `json:"semantic_completeness"`
	TopicConsistency     float64 `json:"topic_consistency"`
	LogicalCoherence     float64 `json:"logical_coherence"`
	OverallScore         float64 `json:"overall_score"`
}

// RefineBoundaries asks the judge to adjust each segment's cut points,
// skipping the first segment (its start is the document start). An
// adjustment applies only when the judge's confidence clears the cutoff;
// a judge error or unparsable reply keeps the deterministic boundary for
// that segment and never aborts the rest. Text is never removed, only
// re-cut.
func RefineBoundaries(ctx context.Context, judge Judge, text string, segments []*types.Segment) []*types.Segment {
	runes := []rune(text)

	for i, seg := range segments {
		if i == 0 {
			continue
		}
		start, end, ok := refineOne(ctx, judge, runes, seg.Start, seg.End)
		if !ok {
			continue
		}
		seg.Start = start
		seg.End = end
		seg.Text = string(runes[start:end])
		seg.AIOptimized = true
		logger.Debug("boundary of segment %d refined to [%d, %d)", seg.ID, start, end)
	}
	return segments
}

func refineOne(ctx context.Context, judge Judge, runes []rune, start, end int) (int, int, bool) {
	ctxStart := max(0, start-contextRadius)
	ctxEnd := min(len(runes), end+contextRadius)
	window := string(runes[ctxStart:ctxEnd])

	prompt := fmt.Sprintf(`Review this text window and propose better segment boundaries so the segment is semantically complete and no sentence is cut mid-way.

Text window:
%s

Current boundaries relative to the window: start=%d, end=%d.

Reply in JSON:
{"optimized_start": <relative start>, "optimized_end": <relative end>, "reason": "...", "confidence": <0-1>}`,
		window, start-ctxStart, end-ctxStart)

	reply, err := judge.Judge(ctx, prompt)
	if err != nil {
		logger.Warn("boundary refinement call failed, keeping deterministic cut: %v", err)
		return 0, 0, false
	}

	result := ai.Parse[boundaryWire](reply, "boundary refinement")
	if !result.Success || result.Data.Confidence <= confidenceCutoff {
		return 0, 0, false
	}

	newStart := ctxStart + result.Data.OptimizedStart
	newEnd := ctxStart + result.Data.OptimizedEnd

	newStart = max(0, min(newStart, len(runes)))
	newEnd = min(max(newEnd, newStart+minRefinedLength), len(runes))
	if newStart == start && newEnd == end {
		return 0, 0, false
	}
	return newStart, newEnd, true
}

// AnalyzeCoherence asks the judge to rate one segment's semantic
// completeness, topic consistency, and logical coherence on a 0-10
// scale. Failures degrade to a neutral analysis rather than an error.
func AnalyzeCoherence(ctx context.Context, judge Judge, seg *types.Segment) types.SegmentAnalysis {
	preview := seg.Text
	if r := []rune(preview); len(r) > 1000 {
		preview = string(r[:1000]) + "..."
	}

	prompt := fmt.Sprintf(`Rate this text segment on a 0-10 scale for each aspect.

Segment:
%s

Reply in JSON:
{"semantic_completeness": <0-10>, "topic_consistency": <0-10>, "logical_coherence": <0-10>, "overall_score": <0-10>}`,
		preview)

	neutral := types.SegmentAnalysis{
		SemanticCompleteness: neutralScore,
		TopicConsistency:     neutralScore,
		LogicalCoherence:     neutralScore,
		OverallScore:         neutralScore,
	}

	reply, err := judge.Judge(ctx, prompt)
	if err != nil {
		logger.Warn("coherence analysis for segment %d failed: %v", seg.ID, err)
		return neutral
	}

	result := ai.Parse[coherenceWire](reply, "coherence analysis")
	if !result.Success {
		logger.Warn("coherence reply for segment %d unparsable, using neutral scores", seg.ID)
		return neutral
	}

	return types.SegmentAnalysis{
		SemanticCompleteness: clampScore(result.Data.SemanticCompleteness),
		TopicConsistency:     clampScore(result.Data.TopicConsistency),
		LogicalCoherence:     clampScore(result.Data.LogicalCoherence),
		OverallScore:         clampScore(result.Data.OverallScore),
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
