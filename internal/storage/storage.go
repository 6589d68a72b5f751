// Package storage persists optimization runs. History is append-only
// and read-after-write: a run written round by round can be reloaded to
// resume analysis after a restart.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/colabbrave/minuteforge/internal/types"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one optimization run over a single document.
type Run struct {
	ID            string    `json:"id"`
	Document      string    `json:"document"`
	Model         string    `json:"model"`
	Status        string    `json:"status"`
	StopReason    string    `json:"stop_reason,omitempty"`
	BestIteration int       `json:"best_iteration"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
}

// Store is the persistence boundary. Iterations are append-only; runs
// transition running -> completed/failed exactly once.
type Store interface {
	// CreateRun registers a new run in the running state.
	CreateRun(ctx context.Context, run *Run) error

	// AppendIteration persists one round's immutable result.
	AppendIteration(ctx context.Context, runID string, result *types.IterationResult) error

	// FinalizeRun marks the run finished with its best iteration and
	// stop reason.
	FinalizeRun(ctx context.Context, runID, status, stopReason string, bestIteration int) error

	// GetRun returns a run by id, or ErrNotFound.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// LoadHistory reloads a run's full history in iteration order.
	LoadHistory(ctx context.Context, runID string) (types.History, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	Close() error
}
