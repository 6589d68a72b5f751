package segment

import (
	"context"
	"unicode/utf8"

	"github.com/colabbrave/minuteforge/internal/config"
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

// Segmenter is the two-stage segmentation pipeline: attempt the
// AI-assisted path, gate it on the evaluator's report, and fall back to
// the deterministic splitter when the gate fails or no judge is
// configured. The caller always gets a usable segmentation.
type Segmenter struct {
	judge Judge // nil disables all AI involvement
	cfg   config.SegmentationConfig
}

// NewSegmenter creates a segmenter. Pass a nil judge for the pure
// deterministic mode.
func NewSegmenter(judge Judge, cfg config.SegmentationConfig) *Segmenter {
	return &Segmenter{judge: judge, cfg: cfg}
}

// Segment splits text into segments and reports on their quality.
//
// Text at or under the maximum segment length comes back as one
// whole-text segment with a nil report and no judge calls. Longer text
// goes through the AI-assisted path when refinement is enabled and a
// judge is present; if the resulting report falls below the quality
// threshold the AI result is discarded and the deterministic splitter
// runs instead, evaluated without any AI.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]*types.Segment, *types.SegmentationReport) {
	if utf8.RuneCountInString(text) <= s.cfg.MaxSegmentLength {
		segs := DeterministicSplit(text, s.cfg.MaxSegmentLength, s.cfg.Overlap)
		return segs, nil
	}

	if s.cfg.EnableRefinement && s.judge != nil {
		segs, report := s.aiAssisted(ctx, text)
		if report.Acceptable(s.cfg.QualityThreshold) {
			return segs, report
		}
		logger.Warn("AI-assisted segmentation scored %.2f, below threshold %.2f; falling back to deterministic split",
			report.OverallQuality, s.cfg.QualityThreshold)
	}

	return s.deterministic(ctx, text)
}

func (s *Segmenter) aiAssisted(ctx context.Context, text string) ([]*types.Segment, *types.SegmentationReport) {
	segs := DeterministicSplit(text, s.cfg.MaxSegmentLength, s.cfg.Overlap)
	segs = RefineBoundaries(ctx, s.judge, text, segs)
	for _, seg := range segs {
		seg.Analysis = AnalyzeCoherence(ctx, s.judge, seg)
	}
	report := NewEvaluator(s.judge).Evaluate(ctx, segs, text)
	return segs, report
}

func (s *Segmenter) deterministic(ctx context.Context, text string) ([]*types.Segment, *types.SegmentationReport) {
	segs := DeterministicSplit(text, s.cfg.MaxSegmentLength, s.cfg.Overlap)
	report := NewEvaluator(nil).Evaluate(ctx, segs, text)
	return segs, report
}
