package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/dto"
)

func setupTestIndex(t *testing.T) *ClipIndex {
	t.Helper()

	idx, err := NewClipIndex(Options{
		DataPath: t.TempDir(),
		Logger:   slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return idx
}

func indexTestClip(t *testing.T, idx *ClipIndex, id, userID, title, collection string, tags []string) {
	t.Helper()

	require.NoError(t, idx.IndexClip(&dto.ClipView{
		ID:         id,
		URL:        "https://www.instagram.com/reel/" + id + "/",
		Title:      title,
		UserID:     userID,
		Collection: collection,
		Tags:       tags,
		CreatedAt:  time.Now(),
	}))
}

func TestSearchByTitle(t *testing.T) {
	idx := setupTestIndex(t)

	indexTestClip(t, idx, "clip-001", "user-001", "Easy weeknight pasta", "Cooking", []string{"recipes"})
	indexTestClip(t, idx, "clip-002", "user-001", "Leg day warmup", "Workout", []string{"fitness"})

	result, err := idx.Search(context.Background(), Params{UserID: "user-001", Query: "pasta", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "clip-001", result.Hits[0].ID)
	assert.Equal(t, "Easy weeknight pasta", result.Hits[0].Title)
}

func TestSearchByTag(t *testing.T) {
	idx := setupTestIndex(t)

	indexTestClip(t, idx, "clip-001", "user-001", "Untitled", "None", []string{"slow-cooker"})

	result, err := idx.Search(context.Background(), Params{UserID: "user-001", Query: "slow-cooker", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Contains(t, result.Hits[0].Tags, "slow-cooker")
}

func TestSearchScopedToUser(t *testing.T) {
	idx := setupTestIndex(t)

	indexTestClip(t, idx, "clip-001", "user-001", "Shared interest pasta", "None", nil)
	indexTestClip(t, idx, "clip-002", "user-002", "Shared interest pasta", "None", nil)

	result, err := idx.Search(context.Background(), Params{UserID: "user-001", Query: "pasta", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "clip-001", result.Hits[0].ID)
}

func TestSearchEmptyQueryReturnsAllForUser(t *testing.T) {
	idx := setupTestIndex(t)

	indexTestClip(t, idx, "clip-001", "user-001", "First", "None", nil)
	indexTestClip(t, idx, "clip-002", "user-001", "Second", "None", nil)
	indexTestClip(t, idx, "clip-003", "user-002", "Other", "None", nil)

	result, err := idx.Search(context.Background(), Params{UserID: "user-001", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestDeleteClipRemovesFromIndex(t *testing.T) {
	idx := setupTestIndex(t)

	indexTestClip(t, idx, "clip-001", "user-001", "Easy pasta", "None", nil)
	require.NoError(t, idx.DeleteClip("clip-001"))

	result, err := idx.Search(context.Background(), Params{UserID: "user-001", Query: "pasta", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}
