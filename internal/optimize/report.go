package optimize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/colabbrave/minuteforge/internal/types"
)

// runReport is the JSON artifact written next to the best minutes. It is
// human-inspectable: score maps and combinations are plain JSON.
type runReport struct {
	Document        string             `json:"document"`
	RunID           string             `json:"run_id"`
	TotalIterations int                `json:"total_iterations"`
	BestIteration   int                `json:"best_iteration"`
	BestScores      map[string]float64 `json:"best_scores"`
	BestCombination types.Combination  `json:"best_strategy_combination"`
	StopReason      string             `json:"stop_reason"`
	TotalSeconds    float64            `json:"total_seconds"`
	History         types.History      `json:"iteration_history"`
}

// WriteArtifacts writes the best minutes and the run report for a
// completed result into dir, creating it if needed. Returns the two
// paths written.
func WriteArtifacts(dir string, res *Result) (minutesPath, reportPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	minutesPath = filepath.Join(dir, res.Document+"_best.md")
	if err := os.WriteFile(minutesPath, []byte(res.Best.Minutes), 0644); err != nil {
		return "", "", fmt.Errorf("writing best minutes: %w", err)
	}

	report := runReport{
		Document:        res.Document,
		RunID:           res.RunID,
		TotalIterations: len(res.History),
		BestIteration:   res.Best.Iteration,
		BestScores:      res.Best.Scores,
		BestCombination: res.Best.Strategies,
		StopReason:      res.StopReason,
		TotalSeconds:    res.Elapsed.Round(time.Millisecond).Seconds(),
		History:         res.History,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding run report: %w", err)
	}

	reportPath = filepath.Join(dir, res.Document+"_report.json")
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("writing run report: %w", err)
	}

	return minutesPath, reportPath, nil
}
