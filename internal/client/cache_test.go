package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/dto"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheSnapshotRoundTrip(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	views := []dto.ClipView{
		clipView("clip_1", "newest", now, "pasta"),
		clipView("clip_2", "older", now.Add(-time.Hour)),
	}
	require.NoError(t, cache.StoreSnapshot(ctx, views))

	loaded, err := cache.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "clip_1", loaded[0].ID)
	assert.Equal(t, []string{"pasta"}, loaded[0].Tags)
	assert.Equal(t, now.UnixMilli(), loaded[0].CreatedAt.UnixMilli())
	assert.Equal(t, "clip_2", loaded[1].ID)
	assert.NotNil(t, loaded[1].Tags)
	assert.Empty(t, loaded[1].Tags)
}

func TestCacheSnapshotReplacesWholesale(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, cache.StoreSnapshot(ctx, []dto.ClipView{
		clipView("clip_old", "gone after resync", now),
	}))
	require.NoError(t, cache.StoreSnapshot(ctx, []dto.ClipView{
		clipView("clip_new", "current", now),
	}))

	loaded, err := cache.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "clip_new", loaded[0].ID)
}

func TestCacheStoreLocal(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()

	view := dto.ClipView{
		URL:        "https://www.instagram.com/reel/OFFLINE/",
		Title:      "saved offline",
		Collection: "None",
		Tags:       []string{"later"},
	}

	stored, err := cache.StoreLocal(ctx, view)
	require.NoError(t, err)
	assert.Regexp(t, `^local-\d+$`, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	second, err := cache.StoreLocal(ctx, view)
	require.NoError(t, err)
	assert.NotEqual(t, stored.ID, second.ID)

	loaded, err := cache.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for _, clip := range loaded {
		assert.Regexp(t, `^local-\d+$`, clip.ID)
	}
}

func TestCacheEmpty(t *testing.T) {
	cache := openTestCache(t)

	loaded, err := cache.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
