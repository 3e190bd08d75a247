package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/common"
	"github.com/ternarybob/playq/internal/interfaces"
)

func testResultStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := NewResultStore(arbor.NewLogger(), &common.ResultsConfig{
		HistoryPath: filepath.Join(t.TempDir(), "history"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResultStore_StepRoundTrip(t *testing.T) {
	store := testResultStore(t)
	ctx := context.Background()

	step := &interfaces.StepResult{
		ID:        "step_1",
		RunID:     "run_1",
		Scenario:  "login",
		Step:      "Web: Click button -field: Submit",
		Status:    "passed",
		Duration:  1200 * time.Millisecond,
		Timestamp: time.Now(),
	}
	require.NoError(t, store.StoreStep(ctx, step))

	steps, err := store.GetSteps(ctx, "run_1")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "login", steps[0].Scenario)
	assert.Equal(t, "passed", steps[0].Status)
}

func TestResultStore_GetStepsFiltersByRun(t *testing.T) {
	store := testResultStore(t)
	ctx := context.Background()

	for i, runID := range []string{"run_a", "run_a", "run_b"} {
		require.NoError(t, store.StoreStep(ctx, &interfaces.StepResult{
			ID:    "step_" + string(rune('0'+i)),
			RunID: runID,
		}))
	}

	steps, err := store.GetSteps(ctx, "run_a")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestResultStore_RunSummaries(t *testing.T) {
	store := testResultStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.StoreRun(ctx, &interfaces.RunSummary{ID: "run_old", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.StoreRun(ctx, &interfaces.RunSummary{ID: "run_new", StartedAt: now}))

	run, err := store.GetRun(ctx, "run_new")
	require.NoError(t, err)
	assert.Equal(t, "run_new", run.ID)

	_, err = store.GetRun(ctx, "run_missing")
	require.Error(t, err)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_new", runs[0].ID)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
