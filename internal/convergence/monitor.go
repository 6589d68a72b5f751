// Package convergence decides when the optimization loop should stop.
package convergence

import (
	"math"

	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

// Stop reasons reported by the monitor.
const (
	ReasonThreshold     = "threshold reached"
	ReasonNoImprovement = "no significant improvement"
)

// Monitor checks the stop conditions after each recorded round. It is
// stateless: every call recomputes from the full history, so replayed or
// re-scored histories cannot drift from hidden counters.
type Monitor struct {
	qualityThreshold float64
	minImprovement   float64
	patience         int
}

// NewMonitor creates a monitor with the given stop parameters.
func NewMonitor(qualityThreshold, minImprovement float64, patience int) *Monitor {
	return &Monitor{
		qualityThreshold: qualityThreshold,
		minImprovement:   minImprovement,
		patience:         patience,
	}
}

// ShouldStop reports whether the run should stop and why. Two independent
// conditions are checked: the latest overall score reaching the quality
// threshold, and a flat window where every consecutive difference across
// the last patience+1 scores is below the minimum improvement. The first
// round is exempt (insufficient history).
func (m *Monitor) ShouldStop(history types.History) (bool, string) {
	if len(history) < 2 {
		return false, ""
	}

	latest := history.Latest().OverallScore()
	if latest >= m.qualityThreshold {
		logger.Info("stop condition met: score %.4f >= threshold %.4f", latest, m.qualityThreshold)
		return true, ReasonThreshold
	}

	window := m.patience + 1
	if len(history) >= window && m.flatWindow(history[len(history)-window:]) {
		logger.Info("stop condition met: %d consecutive rounds below min improvement %.4f",
			m.patience, m.minImprovement)
		return true, ReasonNoImprovement
	}

	return false, ""
}

// flatWindow reports whether every consecutive absolute score difference
// in the window is below the minimum improvement.
func (m *Monitor) flatWindow(window types.History) bool {
	for i := 1; i < len(window); i++ {
		diff := math.Abs(window[i].OverallScore() - window[i-1].OverallScore())
		if diff >= m.minImprovement {
			return false
		}
	}
	return true
}
