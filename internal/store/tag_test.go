package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/domain"
)

func TestFindOrCreateTag(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	tag, created, err := store.FindOrCreateTag(ctx, "user-001", "cooking")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "cooking", tag.Name)
	assert.Equal(t, "user-001", tag.UserID)

	// Second call returns the same tag without creating.
	again, created, err := store.FindOrCreateTag(ctx, "user-001", "cooking")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)
}

func TestFindOrCreateTag_PerUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	a, _, err := store.FindOrCreateTag(ctx, "user-001", "cooking")
	require.NoError(t, err)
	b, created, err := store.FindOrCreateTag(ctx, "user-002", "cooking")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGetTagByName_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetTagByName(context.Background(), "user-001", "nope")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestListTagsByUser_Sorted(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	for _, name := range []string{"zest", "apple", "mango"} {
		_, _, err := store.FindOrCreateTag(ctx, "user-001", name)
		require.NoError(t, err)
	}
	_, _, err := store.FindOrCreateTag(ctx, "user-002", "other")
	require.NoError(t, err)

	tags, err := store.ListTagsByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "apple", tags[0].Name)
	assert.Equal(t, "mango", tags[1].Name)
	assert.Equal(t, "zest", tags[2].Name)
}

func TestAddTagToClip_Idempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	clip := &domain.Clip{
		ID:        "clip-001",
		URL:       "https://www.instagram.com/reel/ABC/",
		UserID:    "user-001",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateClip(ctx, clip))

	tag, _, err := store.FindOrCreateTag(ctx, "user-001", "funny")
	require.NoError(t, err)

	require.NoError(t, store.AddTagToClip(ctx, clip.ID, tag.ID))
	require.NoError(t, store.AddTagToClip(ctx, clip.ID, tag.ID))

	tags, err := store.GetTagsForClip(ctx, clip.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "funny", tags[0].Name)
}

func TestListAssociationsByUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	clip := &domain.Clip{
		ID:        "clip-001",
		URL:       "https://www.instagram.com/reel/ABC/",
		UserID:    "user-001",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateClip(ctx, clip))

	for _, name := range []string{"funny", "recipes"} {
		tag, _, err := store.FindOrCreateTag(ctx, "user-001", name)
		require.NoError(t, err)
		require.NoError(t, store.AddTagToClip(ctx, clip.ID, tag.ID))
	}

	assocs, err := store.ListAssociationsByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, assocs, 2)

	names := []string{assocs[0].TagName, assocs[1].TagName}
	assert.ElementsMatch(t, []string{"funny", "recipes"}, names)
	for _, a := range assocs {
		assert.Equal(t, clip.ID, a.ClipID)
		assert.NotEmpty(t, a.TagID)
	}
}
