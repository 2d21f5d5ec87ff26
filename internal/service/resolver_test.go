package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/store"
)

func setupTestResolver(t *testing.T) (*ResolverService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reelvault-resolver-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	testStore, err := store.New(dbPath, nil)
	require.NoError(t, err)

	resolver := NewResolverService(testStore, nil, slog.New(slog.DiscardHandler))

	cleanup := func() {
		testStore.Close()
		os.RemoveAll(tmpDir)
	}

	return resolver, cleanup
}

func TestResolveCollection_BlankIsNil(t *testing.T) {
	resolver, cleanup := setupTestResolver(t)
	defer cleanup()

	ctx := context.Background()

	for _, input := range []string{"", "   ", "None"} {
		col, err := resolver.ResolveCollection(ctx, "user-001", input, "")
		require.NoError(t, err)
		assert.Nil(t, col, "input %q should resolve to no collection", input)
	}
}

func TestResolveCollection_CreatesOnce(t *testing.T) {
	resolver, cleanup := setupTestResolver(t)
	defer cleanup()

	ctx := context.Background()

	first, err := resolver.ResolveCollection(ctx, "user-001", "Cooking", "")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Surrounding whitespace is trimmed, case is preserved.
	second, err := resolver.ResolveCollection(ctx, "user-001", "  Cooking  ", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := resolver.ResolveCollection(ctx, "user-001", "cooking", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "collection names are case-sensitive")
}

func TestResolveTags_NormalizesAndDedupes(t *testing.T) {
	resolver, cleanup := setupTestResolver(t)
	defer cleanup()

	ctx := context.Background()

	tags, err := resolver.ResolveTags(ctx, "user-001", []string{
		"Café Vibes",
		"cafe-vibes", // Same after normalization.
		"  Recipes  ",
		"",
		"!!!", // Normalizes to nothing.
	}, "")
	require.NoError(t, err)

	require.Len(t, tags, 2)
	assert.Equal(t, "cafe-vibes", tags[0].Name)
	assert.Equal(t, "recipes", tags[1].Name)
}

func TestResolveTags_ConcurrentSameName(t *testing.T) {
	resolver, cleanup := setupTestResolver(t)
	defer cleanup()

	ctx := context.Background()

	const workers = 8
	results := make([]string, workers)
	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tags, err := resolver.ResolveTags(ctx, "user-001", []string{"recipes"}, "")
			if err == nil && len(tags) == 1 {
				results[i] = tags[0].ID
			}
		}()
	}
	wg.Wait()

	// Every worker must have converged on the same tag ID.
	require.NotEmpty(t, results[0])
	for _, tagID := range results {
		assert.Equal(t, results[0], tagID)
	}
}

func TestSplitTagInput(t *testing.T) {
	assert.Nil(t, SplitTagInput("  "))
	assert.Equal(t, []string{"a", " b", "c "}, SplitTagInput("a, b,c "))
}
