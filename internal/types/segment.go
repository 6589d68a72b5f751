package types

import "unicode/utf8"

// SegmentAnalysis holds the judge's per-segment coherence scores on a
// 0-10 scale. A zero value means the segment was never analyzed.
type SegmentAnalysis struct {
	SemanticCompleteness float64 `json:"semantic_completeness"`
	TopicConsistency     float64 `json:"topic_consistency"`
	LogicalCoherence     float64 `json:"logical_coherence"`
	OverallScore         float64 `json:"overall_score"`
}

// Segment is a contiguous slice of a long input document. Segments for
// one document form an ordered sequence; each segment after the first
// overlaps the previous one by the configured overlap length.
type Segment struct {
	ID          int             `json:"segment_id"`
	Text        string          `json:"text"`
	Start       int             `json:"start_offset"`
	End         int             `json:"end_offset"`
	Analysis    SegmentAnalysis `json:"analysis"`
	AIOptimized bool            `json:"is_ai_optimized"`
}

// Len returns the segment text length in characters. Length rules are
// character-based so Chinese and English transcripts are measured alike.
func (s *Segment) Len() int { return utf8.RuneCountInString(s.Text) }

// IssueKind classifies a rule-based segmentation quality problem.
type IssueKind string

const (
	IssueTooShort            IssueKind = "too_short"
	IssueTooLong             IssueKind = "too_long"
	IssueBoundaryPunctuation IssueKind = "boundary_punctuation"
	IssueSemanticIncomplete  IssueKind = "semantic_incomplete"
	IssueTopicInconsistent   IssueKind = "topic_inconsistent"
)

// Severity grades how badly a quality issue degrades a segmentation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// QualityIssue is one detected problem with a specific segment.
type QualityIssue struct {
	SegmentID   int       `json:"segment_id"`
	Kind        IssueKind `json:"kind"`
	Severity    Severity  `json:"severity"`
	Score       float64   `json:"score"`
	Description string    `json:"description"`
}

// BoundaryQuality aggregates judge ratings of adjacent-segment cut
// points. A segmentation with a single segment has Count == 0 and
// perfect scores.
type BoundaryQuality struct {
	Average   float64 `json:"average_boundary_score"`
	Min       float64 `json:"min_boundary_score"`
	Count     int     `json:"boundary_count"`
	PoorCount int     `json:"poor_boundaries"`
}

// BalanceQuality scores how evenly segment lengths are distributed.
// Score is max(0, 10 - cv*20) where cv is the coefficient of variation.
type BalanceQuality struct {
	AverageLength float64 `json:"average_length"`
	StdDev        float64 `json:"length_std"`
	CV            float64 `json:"coefficient_of_variation"`
	Score         float64 `json:"balance_score"`
	MinLength     int     `json:"min_length"`
	MaxLength     int     `json:"max_length"`
}

// CoverageQuality compares the reconstructed concatenation against the
// original text. Only produced when the original text is available.
type CoverageQuality struct {
	LengthRatio  float64 `json:"length_coverage_ratio"`
	Completeness float64 `json:"content_completeness"`
	Redundancy   float64 `json:"redundancy_level"`
	Overall      float64 `json:"overall_coverage"`
}

// IndividualQuality summarizes the per-segment analysis scores.
type IndividualQuality struct {
	Average   float64 `json:"average_score"`
	Min       float64 `json:"min_score"`
	Max       float64 `json:"max_score"`
	PoorCount int     `json:"poor_count"`
}

// SegmentAdvice is a ranked, advisory remediation suggestion for one
// segment. It is never applied automatically.
type SegmentAdvice struct {
	SegmentID  int      `json:"segment_id"`
	Priority   string   `json:"priority"`
	ActionType string   `json:"action_type"`
	Actions    []string `json:"actions"`
}

// SegmentationReport is the evaluator's verdict on one segmentation
// attempt. OverallQuality below the configured threshold triggers the
// deterministic fallback.
type SegmentationReport struct {
	SegmentCount   int               `json:"segment_count"`
	Individual     IndividualQuality `json:"individual_quality"`
	Boundary       BoundaryQuality   `json:"boundary_quality"`
	Balance        BalanceQuality    `json:"balance_quality"`
	Coverage       *CoverageQuality  `json:"coverage_quality,omitempty"`
	Issues         []QualityIssue    `json:"issues"`
	Suggestions    []SegmentAdvice   `json:"suggestions,omitempty"`
	OverallQuality float64           `json:"overall_quality"`
}

// Acceptable reports whether the segmentation meets the given quality
// threshold on the evaluator's 0-10 scale.
func (r *SegmentationReport) Acceptable(threshold float64) bool {
	return r.OverallQuality >= threshold
}
