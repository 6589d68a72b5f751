package types

import "time"

// MetricOverall is the key of the combined score in an iteration's score
// map. The orchestrator ranks history entries by this metric.
const MetricOverall = "overall_score"

// IterationResult records one round of the optimization loop. It is
// created once by the orchestrator, appended to the run history, and
// never mutated afterward.
type IterationResult struct {
	Iteration     int                `json:"iteration"`
	Strategies    Combination        `json:"strategy_combination"`
	Minutes       string             `json:"minutes_content"`
	Scores        map[string]float64 `json:"scores"`
	ExecutionTime time.Duration      `json:"execution_time"`
	Timestamp     time.Time          `json:"timestamp"`
	ModelID       string             `json:"model_id"`
}

// OverallScore returns the combined score for the round, or 0 when the
// metric is absent.
func (r *IterationResult) OverallScore() float64 {
	if r == nil || r.Scores == nil {
		return 0
	}
	return r.Scores[MetricOverall]
}

// History is the append-only sequence of iteration results for one run.
// It is owned by the orchestrating goroutine; other components receive it
// by reference and only read it.
type History []*IterationResult

// Latest returns the most recent result, or nil for an empty history.
func (h History) Latest() *IterationResult {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

// Best returns the entry with the highest overall score. Ties are broken
// by the earliest iteration so the choice is deterministic. Returns nil
// for an empty history.
func (h History) Best() *IterationResult {
	var best *IterationResult
	for _, r := range h {
		if best == nil || r.OverallScore() > best.OverallScore() {
			best = r
		}
	}
	return best
}
