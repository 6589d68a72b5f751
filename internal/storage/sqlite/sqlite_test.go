package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/storage"
	"github.com/colabbrave/minuteforge/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "minutes", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRun() *storage.Run {
	return &storage.Run{
		ID:       uuid.NewString(),
		Document: "board-meeting-2026-08.txt",
		Model:    "claude-sonnet-4-5-20250929",
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()

	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Document, got.Document)
	assert.Equal(t, storage.StatusRunning, got.Status)
	assert.False(t, got.StartedAt.IsZero())
	assert.True(t, got.CompletedAt.IsZero())
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	require.NoError(t, s.CreateRun(ctx, run))

	results := []*types.IterationResult{
		{
			Iteration:     0,
			Strategies:    types.Combination{"role_professional_secretary", "structure_standard_sections"},
			Minutes:       "## 會議記錄\n- 決議：通過",
			Scores:        map[string]float64{types.MetricOverall: 0.61, "structure_score": 0.7},
			ExecutionTime: 1500 * time.Millisecond,
			Timestamp:     time.Now(),
			ModelID:       run.Model,
		},
		{
			Iteration:  1,
			Strategies: types.Combination{"role_professional_secretary", "content_action_items"},
			Minutes:    "## 會議記錄 v2",
			Scores:     map[string]float64{types.MetricOverall: 0.72},
			Timestamp:  time.Now(),
			ModelID:    run.Model,
		},
	}
	for _, r := range results {
		require.NoError(t, s.AppendIteration(ctx, run.ID, r))
	}

	history, err := s.LoadHistory(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, results[0].Strategies, history[0].Strategies)
	assert.Equal(t, results[0].Minutes, history[0].Minutes)
	assert.InDelta(t, 0.61, history[0].Scores[types.MetricOverall], 1e-9)
	assert.Equal(t, 1500*time.Millisecond, history[0].ExecutionTime)
	assert.InDelta(t, 0.72, history[1].OverallScore(), 1e-9)
}

func TestAppendIsReadAfterWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	require.NoError(t, s.CreateRun(ctx, run))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendIteration(ctx, run.ID, &types.IterationResult{
			Iteration:  i,
			Strategies: types.Combination{"role_professional_secretary", "content_key_points"},
			Scores:     map[string]float64{types.MetricOverall: float64(i) / 10},
			Timestamp:  time.Now(),
		}))

		history, err := s.LoadHistory(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, history, i+1, "iteration must be visible immediately after append")
	}
}

func TestDuplicateIterationRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	require.NoError(t, s.CreateRun(ctx, run))

	result := &types.IterationResult{
		Iteration:  0,
		Strategies: types.Combination{"role_professional_secretary"},
		Scores:     map[string]float64{types.MetricOverall: 0.5},
		Timestamp:  time.Now(),
	}
	require.NoError(t, s.AppendIteration(ctx, run.ID, result))
	assert.Error(t, s.AppendIteration(ctx, run.ID, result), "history is append-only, same round twice must fail")
}

func TestFinalizeRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	require.NoError(t, s.CreateRun(ctx, run))

	require.NoError(t, s.FinalizeRun(ctx, run.ID, storage.StatusCompleted, "threshold reached", 2))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusCompleted, got.Status)
	assert.Equal(t, "threshold reached", got.StopReason)
	assert.Equal(t, 2, got.BestIteration)
	assert.False(t, got.CompletedAt.IsZero())

	assert.ErrorIs(t, s.FinalizeRun(ctx, uuid.NewString(), storage.StatusFailed, "", -1), storage.ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := newTestRun()
	older.StartedAt = time.Now().Add(-time.Hour)
	newer := newTestRun()
	newer.StartedAt = time.Now()

	require.NoError(t, s.CreateRun(ctx, older))
	require.NoError(t, s.CreateRun(ctx, newer))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
