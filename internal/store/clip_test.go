package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/domain"
)

func TestCreateClip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	clip := &domain.Clip{
		ID:           "clip-001",
		URL:          "https://www.instagram.com/reel/ABC123/",
		Title:        "Pasta hack",
		UserID:       "user-001",
		CollectionID: "col-001",
		CreatedAt:    time.Now(),
	}

	err := store.CreateClip(ctx, clip)
	require.NoError(t, err)

	retrieved, err := store.GetClip(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, clip.URL, retrieved.URL)
	assert.Equal(t, clip.Title, retrieved.Title)
	assert.Equal(t, clip.UserID, retrieved.UserID)
	assert.Equal(t, clip.CollectionID, retrieved.CollectionID)
}

func TestCreateClip_DuplicateURL(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	clip := &domain.Clip{
		ID:        "clip-001",
		URL:       "https://www.instagram.com/reel/ABC123/",
		UserID:    "user-001",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateClip(ctx, clip))

	dup := &domain.Clip{
		ID:        "clip-002",
		URL:       "https://www.instagram.com/reel/ABC123/",
		UserID:    "user-001",
		CreatedAt: time.Now(),
	}
	err := store.CreateClip(ctx, dup)
	assert.ErrorIs(t, err, ErrClipURLExists)
}

func TestCreateClip_SameURLDifferentUsers(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	url := "https://www.instagram.com/reel/ABC123/"
	require.NoError(t, store.CreateClip(ctx, &domain.Clip{
		ID: "clip-001", URL: url, UserID: "user-001", CreatedAt: time.Now(),
	}))

	// The uniqueness constraint is per user.
	err := store.CreateClip(ctx, &domain.Clip{
		ID: "clip-002", URL: url, UserID: "user-002", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestClipURLExists(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	exists, err := store.ClipURLExists(ctx, "user-001", "https://www.instagram.com/reel/XYZ/")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateClip(ctx, &domain.Clip{
		ID: "clip-001", URL: "https://www.instagram.com/reel/XYZ/", UserID: "user-001", CreatedAt: time.Now(),
	}))

	exists, err = store.ClipURLExists(ctx, "user-001", "https://www.instagram.com/reel/XYZ/")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetClip_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetClip(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrClipNotFound)
}

func TestListClipsByUser_NewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now()

	for i, clipID := range []string{"clip-a", "clip-b", "clip-c"} {
		require.NoError(t, store.CreateClip(ctx, &domain.Clip{
			ID:        clipID,
			URL:       "https://www.instagram.com/reel/" + clipID + "/",
			UserID:    "user-001",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// A clip from another user must not leak in.
	require.NoError(t, store.CreateClip(ctx, &domain.Clip{
		ID: "clip-other", URL: "https://www.instagram.com/reel/other/", UserID: "user-002", CreatedAt: base,
	}))

	clips, err := store.ListClipsByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, clips, 3)
	assert.Equal(t, "clip-c", clips[0].ID)
	assert.Equal(t, "clip-b", clips[1].ID)
	assert.Equal(t, "clip-a", clips[2].ID)
}

func TestDeleteClip_CascadesAssociations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	clip := &domain.Clip{
		ID:        "clip-001",
		URL:       "https://www.instagram.com/reel/ABC123/",
		UserID:    "user-001",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateClip(ctx, clip))

	tag, _, err := store.FindOrCreateTag(ctx, "user-001", "funny")
	require.NoError(t, err)
	require.NoError(t, store.AddTagToClip(ctx, clip.ID, tag.ID))

	require.NoError(t, store.DeleteClip(ctx, clip.ID))

	_, err = store.GetClip(ctx, clip.ID)
	assert.ErrorIs(t, err, ErrClipNotFound)

	clipIDs, err := store.GetClipIDsForTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, clipIDs)

	// URL index must be freed so the clip can be re-saved.
	err = store.CreateClip(ctx, &domain.Clip{
		ID: "clip-002", URL: clip.URL, UserID: "user-001", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}
