package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateCollection(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	col, created, err := store.FindOrCreateCollection(ctx, "user-001", "Cooking")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Cooking", col.Name)

	again, created, err := store.FindOrCreateCollection(ctx, "user-001", "Cooking")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, col.ID, again.ID)
}

func TestFindOrCreateCollection_CaseSensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	upper, _, err := store.FindOrCreateCollection(ctx, "user-001", "Cooking")
	require.NoError(t, err)

	lower, created, err := store.FindOrCreateCollection(ctx, "user-001", "cooking")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, upper.ID, lower.ID)
}

func TestGetCollectionByName_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetCollectionByName(context.Background(), "user-001", "Missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestListCollectionsByUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for _, name := range []string{"Workout", "Cooking", "Travel"} {
		_, _, err := store.FindOrCreateCollection(ctx, "user-001", name)
		require.NoError(t, err)
	}
	_, _, err := store.FindOrCreateCollection(ctx, "user-002", "Elsewhere")
	require.NoError(t, err)

	collections, err := store.ListCollectionsByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, collections, 3)
	assert.Equal(t, "Cooking", collections[0].Name)
	assert.Equal(t, "Travel", collections[1].Name)
	assert.Equal(t, "Workout", collections[2].Name)
}
