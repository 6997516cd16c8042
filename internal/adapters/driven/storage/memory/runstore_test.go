package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// TestRunStore_CreateComplete tests the run lifecycle
func TestRunStore_CreateComplete(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := domain.Run{ID: "run-1", StartedAt: time.Now().UTC(), Status: domain.StatusInProgress}
	require.NoError(t, store.Create(ctx, run))

	completed := time.Now().UTC()
	run.Status = domain.StatusSuccess
	run.CompletedAt = &completed
	run.RecordsWritten = 10
	require.NoError(t, store.Complete(ctx, run))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.StatusSuccess, runs[0].Status)
	assert.Equal(t, 10, runs[0].RecordsWritten)
}

// TestRunStore_ReapStale tests abandoned runs are marked failed
func TestRunStore_ReapStale(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })

	// 90 minutes old: past the 60-minute threshold.
	require.NoError(t, store.Create(ctx, domain.Run{
		ID: "stale", StartedAt: now.Add(-90 * time.Minute), Status: domain.StatusInProgress,
	}))
	// 30 minutes old: left untouched.
	require.NoError(t, store.Create(ctx, domain.Run{
		ID: "fresh", StartedAt: now.Add(-30 * time.Minute), Status: domain.StatusInProgress,
	}))
	// Already completed: never reaped.
	require.NoError(t, store.Create(ctx, domain.Run{
		ID: "done", StartedAt: now.Add(-3 * time.Hour), Status: domain.StatusSuccess,
	}))

	reaped, err := store.ReapStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	byID := make(map[string]domain.Run)
	for _, r := range runs {
		byID[r.ID] = r
	}
	assert.Equal(t, domain.StatusFailed, byID["stale"].Status)
	assert.Contains(t, byID["stale"].ErrorSummary, "abandoned")
	require.NotNil(t, byID["stale"].CompletedAt)
	assert.Equal(t, domain.StatusInProgress, byID["fresh"].Status)
	assert.Equal(t, domain.StatusSuccess, byID["done"].Status)
}

// TestRunStore_Details tests detail rows keep write order
func TestRunStore_Details(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDetail(ctx, domain.SourceRunDetail{RunID: "run-1", SourceID: "alpha"}))
	require.NoError(t, store.SaveDetail(ctx, domain.SourceRunDetail{RunID: "run-1", SourceID: "beta"}))

	details, err := store.ListDetails(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "alpha", details[0].SourceID)
	assert.Equal(t, "beta", details[1].SourceID)

	details, err = store.ListDetails(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, details)
}

// TestRunStore_ListRuns_Limit tests newest-first ordering and limit
func TestRunStore_ListRuns_Limit(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.Create(ctx, domain.Run{
			ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), Status: domain.StatusSuccess,
		}))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
}
