package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perseus-data/solsync/internal/core/domain"
)

func testPhoto(source, id string, sol int) domain.Photo {
	return domain.Photo{
		SourceID:   source,
		ExternalID: id,
		Sol:        sol,
		Camera:     "NAVCAM",
		ImgURL:     "https://example.com/" + id + ".jpg",
		TakenAt:    time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TestRecordStore_UpsertIfAbsent tests duplicate inserts are ignored
func TestRecordStore_UpsertIfAbsent(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	inserted, err := store.UpsertIfAbsent(ctx, testPhoto("alpha", "p-1", 100))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.UpsertIfAbsent(ctx, testPhoto("alpha", "p-1", 100))
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := store.CountBySource(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestRecordStore_ExistingIDs tests the batch existence check
func TestRecordStore_ExistingIDs(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	_, err := store.UpsertIfAbsent(ctx, testPhoto("alpha", "p-1", 100))
	require.NoError(t, err)
	_, err = store.UpsertIfAbsent(ctx, testPhoto("alpha", "p-2", 101))
	require.NoError(t, err)

	existing, err := store.ExistingIDs(ctx, "alpha", []string{"p-1", "p-2", "p-3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"p-1": true, "p-2": true}, existing)

	// Other sources do not leak into the check.
	existing, err = store.ExistingIDs(ctx, "beta", []string{"p-1"})
	require.NoError(t, err)
	assert.Empty(t, existing)
}

// TestRecordStore_MaxSol tests the high-water mark query
func TestRecordStore_MaxSol(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	_, ok, err := store.MaxSol(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, ok)

	for i, sol := range []int{100, 120, 110} {
		_, err = store.UpsertIfAbsent(ctx, testPhoto("alpha", string(rune('a'+i)), sol))
		require.NoError(t, err)
	}

	max, ok, err := store.MaxSol(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 120, max)
}
