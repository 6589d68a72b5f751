// Package sqlite is the SQLite-backed run store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/colabbrave/minuteforge/internal/storage"
	"github.com/colabbrave/minuteforge/internal/types"
)

// Store implements storage.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (creating if needed) the database at path. WAL mode keeps
// readers unblocked while a run is appending.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateRun implements storage.Store.
func (s *Store) CreateRun(ctx context.Context, run *storage.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = storage.StatusRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, document, model, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Document, run.Model, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("creating run %s: %w", run.ID, err)
	}
	return nil
}

// AppendIteration implements storage.Store. Score maps and combinations
// are stored as JSON so the rows stay human-inspectable.
func (s *Store) AppendIteration(ctx context.Context, runID string, result *types.IterationResult) error {
	strategies, err := json.Marshal(result.Strategies)
	if err != nil {
		return fmt.Errorf("encoding strategies: %w", err)
	}
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}

	createdAt := result.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO iterations (run_id, iteration, strategies, minutes, scores, execution_ms, model_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Iteration, string(strategies), result.Minutes, string(scores),
		result.ExecutionTime.Milliseconds(), result.ModelID, createdAt)
	if err != nil {
		return fmt.Errorf("appending iteration %d to run %s: %w", result.Iteration, runID, err)
	}
	return nil
}

// FinalizeRun implements storage.Store.
func (s *Store) FinalizeRun(ctx context.Context, runID, status, stopReason string, bestIteration int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stop_reason = ?, best_iteration = ?, completed_at = ? WHERE id = ?`,
		status, stopReason, bestIteration, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("finalizing run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetRun implements storage.Store.
func (s *Store) GetRun(ctx context.Context, runID string) (*storage.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document, model, status, stop_reason, best_iteration, started_at, completed_at
		 FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

// LoadHistory implements storage.Store. Results come back in iteration
// order, ready to seed a resumed analysis.
func (s *Store) LoadHistory(ctx context.Context, runID string) (types.History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, strategies, minutes, scores, execution_ms, model_id, created_at
		 FROM iterations WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading history for run %s: %w", runID, err)
	}
	defer rows.Close()

	var history types.History
	for rows.Next() {
		var (
			result      types.IterationResult
			strategies  string
			scores      string
			executionMS int64
		)
		if err := rows.Scan(&result.Iteration, &strategies, &result.Minutes, &scores,
			&executionMS, &result.ModelID, &result.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning iteration: %w", err)
		}
		if err := json.Unmarshal([]byte(strategies), &result.Strategies); err != nil {
			return nil, fmt.Errorf("decoding strategies for iteration %d: %w", result.Iteration, err)
		}
		if err := json.Unmarshal([]byte(scores), &result.Scores); err != nil {
			return nil, fmt.Errorf("decoding scores for iteration %d: %w", result.Iteration, err)
		}
		result.ExecutionTime = time.Duration(executionMS) * time.Millisecond
		history = append(history, &result)
	}
	return history, rows.Err()
}

// ListRuns implements storage.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*storage.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, model, status, stop_reason, best_iteration, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*storage.Run, error) {
	var (
		run         storage.Run
		completedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.Document, &run.Model, &run.Status, &run.StopReason,
		&run.BestIteration, &run.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}
