package segment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/colabbrave/minuteforge/internal/ai"
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

// Quality grade thresholds on the evaluator's 0-10 scale.
const (
	gradeExcellent  = 8.5
	gradeGood       = 7.0
	gradeAcceptable = 5.5
	gradePoor       = 3.0
)

// Length limits for rule-based issue detection, in characters.
const (
	minSegmentChars = 100
	maxSegmentChars = 6000
)

// Overall-quality component weights, normalized over whichever
// components are present.
const (
	weightIndividual = 0.4
	weightBoundary   = 0.3
	weightBalance    = 0.2
	weightCoverage   = 0.1
)

// issuePenaltyStep and issuePenaltyCap dampen the overall quality as
// detected issues accumulate.
const (
	issuePenaltyStep = 0.2
	issuePenaltyCap  = 2.0
)

type boundaryScoreWire struct {
	BoundaryScore  float64 `json:"boundary_score"`
	IsNaturalBreak bool    `json:"is_natural_break"`
}

type coverageWire struct {
	ContentCompleteness float64 `json:"content_completeness"`
	RedundancyLevel     float64 `json:"redundancy_level"`
	OverallCoverage     float64 `json:"overall_coverage"`
}

type adviceWire struct {
	Priority            string   `json:"priority"`
	ActionType          string   `json:"action_type"`
	SpecificSuggestions []string `json:"specific_suggestions"`
}

// Evaluator scores a candidate segmentation. A nil judge skips every AI
// judgment and substitutes neutral scores, so the deterministic path
// produces a fully rule-based report with no calls.
type Evaluator struct {
	judge Judge
}

// NewEvaluator creates an evaluator. judge may be nil for the
// deterministic, no-AI mode.
func NewEvaluator(judge Judge) *Evaluator {
	return &Evaluator{judge: judge}
}

// Evaluate produces the segmentation report: boundary naturalness,
// length balance, content coverage (when originalText is supplied),
// per-segment quality, rule-based issues, and advisory remediation
// suggestions. The overall quality gates the AI segmentation path.
func (e *Evaluator) Evaluate(ctx context.Context, segments []*types.Segment, originalText string) *types.SegmentationReport {
	report := &types.SegmentationReport{
		SegmentCount: len(segments),
		Individual:   individualQuality(segments),
		Boundary:     e.boundaryQuality(ctx, segments),
		Balance:      balanceQuality(segments),
	}
	if originalText != "" {
		cov := e.coverageQuality(ctx, segments, originalText)
		report.Coverage = &cov
	}

	report.Issues = DetectIssues(segments)
	report.Suggestions = e.adviseOnIssues(ctx, segments, report.Issues)
	report.OverallQuality = overallQuality(report)

	logger.Info("segmentation quality %.2f/10 (%s), %d segments, %d issues",
		report.OverallQuality, Grade(report.OverallQuality), len(segments), len(report.Issues))
	return report
}

// boundaryQuality rates each adjacent cut. One judge call per boundary;
// a failed or unparsable call contributes the neutral score. No
// boundaries yields a perfect score.
func (e *Evaluator) boundaryQuality(ctx context.Context, segments []*types.Segment) types.BoundaryQuality {
	if len(segments) < 2 {
		return types.BoundaryQuality{Average: 10, Min: 10}
	}

	var scores []float64
	for i := 0; i < len(segments)-1; i++ {
		scores = append(scores, e.rateBoundary(ctx, segments[i], segments[i+1]))
	}

	q := types.BoundaryQuality{Min: 10, Count: len(scores)}
	var sum float64
	for _, s := range scores {
		sum += s
		if s < q.Min {
			q.Min = s
		}
		if s < 5.0 {
			q.PoorCount++
		}
	}
	q.Average = sum / float64(len(scores))
	return q
}

func (e *Evaluator) rateBoundary(ctx context.Context, current, next *types.Segment) float64 {
	if e.judge == nil {
		return neutralScore
	}

	tail := tailChars(current.Text, contextRadius)
	head := headChars(next.Text, contextRadius)
	prompt := fmt.Sprintf(`Rate whether this segment boundary is a natural break (0-10). Consider whether a sentence is cut mid-way and whether the topic transition is reasonable.

End of segment A:
...%s

Start of segment B:
%s...

Reply in JSON: {"boundary_score": <0-10>, "is_natural_break": true/false}`, tail, head)

	reply, err := e.judge.Judge(ctx, prompt)
	if err != nil {
		logger.Warn("boundary rating between segments %d and %d failed: %v", current.ID, next.ID, err)
		return neutralScore
	}
	parsed := ai.ParseOrDefault(reply, boundaryScoreWire{BoundaryScore: neutralScore}, "boundary rating")
	return clampScore(parsed.BoundaryScore)
}

// balanceQuality maps the coefficient of variation of segment lengths to
// a 0-10 score via max(0, 10 - cv*20). Pure formula, no AI.
func balanceQuality(segments []*types.Segment) types.BalanceQuality {
	if len(segments) == 0 {
		return types.BalanceQuality{}
	}

	q := types.BalanceQuality{MinLength: segments[0].Len(), MaxLength: segments[0].Len()}
	var sum float64
	for _, seg := range segments {
		n := seg.Len()
		sum += float64(n)
		if n < q.MinLength {
			q.MinLength = n
		}
		if n > q.MaxLength {
			q.MaxLength = n
		}
	}
	q.AverageLength = sum / float64(len(segments))

	if len(segments) > 1 && q.AverageLength > 0 {
		var variance float64
		for _, seg := range segments {
			d := float64(seg.Len()) - q.AverageLength
			variance += d * d
		}
		q.StdDev = math.Sqrt(variance / float64(len(segments)-1))
		q.CV = q.StdDev / q.AverageLength
	}

	q.Score = math.Max(0, 10-q.CV*20)
	return q
}

// coverageQuality compares the reconstructed concatenation to the
// original text. The length ratio is deterministic; completeness and
// redundancy come from the judge when available.
func (e *Evaluator) coverageQuality(ctx context.Context, segments []*types.Segment, original string) types.CoverageQuality {
	var reconstructed strings.Builder
	for _, seg := range segments {
		reconstructed.WriteString(seg.Text)
		reconstructed.WriteString("\n")
	}

	origLen := len([]rune(original))
	q := types.CoverageQuality{Completeness: 8.0, Redundancy: 3.0, Overall: 8.0}
	if origLen > 0 {
		q.LengthRatio = float64(len([]rune(reconstructed.String()))) / float64(origLen)
	}
	if e.judge == nil {
		return q
	}

	prompt := fmt.Sprintf(`Compare the original text and its reconstruction from segments. Original length %d chars, reconstruction %d chars.

Original starts:
%s

Reconstruction starts:
%s

Reply in JSON: {"content_completeness": <0-10>, "redundancy_level": <0-10, lower is better>, "overall_coverage": <0-10>}`,
		origLen, len([]rune(reconstructed.String())), headChars(original, 500), headChars(reconstructed.String(), 500))

	reply, err := e.judge.Judge(ctx, prompt)
	if err != nil {
		logger.Warn("coverage judgment failed: %v", err)
		return q
	}
	parsed := ai.ParseOrDefault(reply, coverageWire{
		ContentCompleteness: q.Completeness,
		RedundancyLevel:     q.Redundancy,
		OverallCoverage:     q.Overall,
	}, "coverage judgment")

	q.Completeness = clampScore(parsed.ContentCompleteness)
	q.Redundancy = clampScore(parsed.RedundancyLevel)
	q.Overall = clampScore(parsed.OverallCoverage)
	return q
}

func individualQuality(segments []*types.Segment) types.IndividualQuality {
	var scores []float64
	for _, seg := range segments {
		if seg.Analysis.OverallScore > 0 {
			scores = append(scores, seg.Analysis.OverallScore)
		}
	}
	if len(scores) == 0 {
		return types.IndividualQuality{}
	}

	q := types.IndividualQuality{Min: scores[0], Max: scores[0]}
	var sum float64
	for _, s := range scores {
		sum += s
		if s < q.Min {
			q.Min = s
		}
		if s > q.Max {
			q.Max = s
		}
		if s < gradeAcceptable {
			q.PoorCount++
		}
	}
	q.Average = sum / float64(len(scores))
	return q
}

// DetectIssues applies the rule-based issue checks. No AI: the coherence
// rules only read scores already attached to the segments.
func DetectIssues(segments []*types.Segment) []types.QualityIssue {
	var issues []types.QualityIssue

	for _, seg := range segments {
		if n := seg.Len(); n < minSegmentChars {
			issues = append(issues, types.QualityIssue{
				SegmentID:   seg.ID,
				Kind:        types.IssueTooShort,
				Severity:    types.SeverityMedium,
				Score:       float64(n),
				Description: fmt.Sprintf("segment is only %d chars, likely carries too little information", n),
			})
		} else if n > maxSegmentChars {
			issues = append(issues, types.QualityIssue{
				SegmentID:   seg.ID,
				Kind:        types.IssueTooLong,
				Severity:    types.SeverityMedium,
				Score:       float64(n),
				Description: fmt.Sprintf("segment is %d chars, may need further splitting", n),
			})
		}

		if hasDanglingPunctuation(seg.Text) {
			issues = append(issues, types.QualityIssue{
				SegmentID:   seg.ID,
				Kind:        types.IssueBoundaryPunctuation,
				Severity:    types.SeverityLow,
				Description: "segment starts or ends with dangling punctuation",
			})
		}

		// Coherence rules apply only to analyzed segments.
		if seg.Analysis == (types.SegmentAnalysis{}) {
			continue
		}
		if s := seg.Analysis.SemanticCompleteness; s < gradeAcceptable {
			severity := types.SeverityMedium
			if s < gradePoor {
				severity = types.SeverityHigh
			}
			issues = append(issues, types.QualityIssue{
				SegmentID:   seg.ID,
				Kind:        types.IssueSemanticIncomplete,
				Severity:    severity,
				Score:       s,
				Description: "segment appears cut at a semantically incomplete position",
			})
		}
		if s := seg.Analysis.TopicConsistency; s < gradeAcceptable {
			severity := types.SeverityLow
			if s < gradePoor {
				severity = types.SeverityMedium
			}
			issues = append(issues, types.QualityIssue{
				SegmentID:   seg.ID,
				Kind:        types.IssueTopicInconsistent,
				Severity:    severity,
				Score:       s,
				Description: "segment content jumps between topics",
			})
		}
	}
	return issues
}

func hasDanglingPunctuation(text string) bool {
	runes := []rune(text)
	if len(runes) == 0 {
		return false
	}
	openers := "，。、；：,;:"
	closers := "，、；：,;:"
	return strings.ContainsRune(openers, runes[0]) || strings.ContainsRune(closers, runes[len(runes)-1])
}

// adviseOnIssues asks the judge for remediation per problem segment.
// Advisory only: nothing here is ever applied automatically. Without a
// judge (or on failure) a default recommendation is emitted instead.
func (e *Evaluator) adviseOnIssues(ctx context.Context, segments []*types.Segment, issues []types.QualityIssue) []types.SegmentAdvice {
	bySegment := make(map[int][]types.QualityIssue)
	var order []int
	for _, issue := range issues {
		if _, seen := bySegment[issue.SegmentID]; !seen {
			order = append(order, issue.SegmentID)
		}
		bySegment[issue.SegmentID] = append(bySegment[issue.SegmentID], issue)
	}

	segByID := make(map[int]*types.Segment, len(segments))
	for _, seg := range segments {
		segByID[seg.ID] = seg
	}

	var advice []types.SegmentAdvice
	for _, id := range order {
		segIssues := bySegment[id]
		seg, ok := segByID[id]
		if !ok {
			continue
		}
		advice = append(advice, e.adviseOne(ctx, seg, segIssues))
	}
	return advice
}

func (e *Evaluator) adviseOne(ctx context.Context, seg *types.Segment, issues []types.QualityIssue) types.SegmentAdvice {
	fallback := types.SegmentAdvice{
		SegmentID:  seg.ID,
		Priority:   "medium",
		ActionType: "recheck",
		Actions:    []string{"re-evaluate the segment boundaries", "verify semantic completeness"},
	}
	for _, issue := range issues {
		if issue.Severity == types.SeverityHigh {
			fallback.Priority = "high"
			break
		}
	}
	if e.judge == nil {
		return fallback
	}

	var described []string
	for _, issue := range issues {
		described = append(described, fmt.Sprintf("%s: %s", issue.Kind, issue.Description))
	}

	prompt := fmt.Sprintf(`Segment %d has these quality issues:
%s

Segment preview:
%s

Suggest concrete remediation. Reply in JSON:
{"priority": "high|medium|low", "action_type": "resegment|adjust_boundary|reorganize|merge", "specific_suggestions": ["..."]}`,
		seg.ID, strings.Join(described, "\n"), headChars(seg.Text, 300))

	reply, err := e.judge.Judge(ctx, prompt)
	if err != nil {
		logger.Warn("remediation advice for segment %d failed: %v", seg.ID, err)
		return fallback
	}

	parsed := ai.Parse[adviceWire](reply, "remediation advice")
	if !parsed.Success {
		return fallback
	}
	return types.SegmentAdvice{
		SegmentID:  seg.ID,
		Priority:   parsed.Data.Priority,
		ActionType: parsed.Data.ActionType,
		Actions:    parsed.Data.SpecificSuggestions,
	}
}

// overallQuality is the weighted mean of the present components minus a
// capped per-issue penalty, clamped to [0, 10]. Individual quality only
// counts when at least one segment was analyzed.
func overallQuality(report *types.SegmentationReport) float64 {
	var weighted, totalWeight float64

	if report.Individual != (types.IndividualQuality{}) {
		weighted += report.Individual.Average * weightIndividual
		totalWeight += weightIndividual
	}
	weighted += report.Boundary.Average * weightBoundary
	totalWeight += weightBoundary
	weighted += report.Balance.Score * weightBalance
	totalWeight += weightBalance
	if report.Coverage != nil {
		weighted += report.Coverage.Overall * weightCoverage
		totalWeight += weightCoverage
	}

	score := weighted / totalWeight
	penalty := math.Min(issuePenaltyCap, float64(len(report.Issues))*issuePenaltyStep)
	return math.Max(0, math.Min(10, score-penalty))
}

// Grade buckets a 0-10 quality score.
func Grade(score float64) string {
	switch {
	case score >= gradeExcellent:
		return "excellent"
	case score >= gradeGood:
		return "good"
	case score >= gradeAcceptable:
		return "acceptable"
	default:
		return "needs improvement"
	}
}

func headChars(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func tailChars(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
