package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	now := time.Now().UnixMilli()

	collections := []Collection{
		{ID: "col_1", Name: "Recipes"},
	}
	clips := []ClipRow{
		{ID: "clip_1", URL: "https://www.instagram.com/reel/AAA/", Title: "Pasta night", CollectionID: "col_1", CreatedAt: now},
		{ID: "clip_2", URL: "https://www.instagram.com/reel/BBB/", Title: "Uncollected", CreatedAt: now - 1000},
	}
	associations := []Association{
		{ClipID: "clip_1", TagID: "tag_1", TagName: "pasta"},
		{ClipID: "clip_1", TagID: "tag_2", TagName: "dinner"},
	}

	views := NewAssembler(collections).Assemble(clips, associations)
	require.Len(t, views, 2)

	assert.Equal(t, "clip_1", views[0].ID)
	assert.Equal(t, "Recipes", views[0].Collection)
	assert.Equal(t, []string{"pasta", "dinner"}, views[0].Tags)
	assert.Equal(t, time.UnixMilli(now), views[0].CreatedAt)

	assert.Equal(t, "clip_2", views[1].ID)
	assert.Equal(t, "None", views[1].Collection)
	assert.NotNil(t, views[1].Tags)
	assert.Empty(t, views[1].Tags)
}

func TestAssemble_PreservesOrderAndLength(t *testing.T) {
	clips := []ClipRow{
		{ID: "clip_3", Title: "third"},
		{ID: "clip_1", Title: "first"},
		{ID: "clip_2", Title: "second"},
	}

	views := NewAssembler(nil).Assemble(clips, nil)
	require.Len(t, views, len(clips))
	for i, clip := range clips {
		assert.Equal(t, clip.ID, views[i].ID)
	}
}

func TestAssemble_DuplicateAssociations(t *testing.T) {
	clips := []ClipRow{{ID: "clip_1"}}
	associations := []Association{
		{ClipID: "clip_1", TagID: "tag_1", TagName: "pasta"},
		{ClipID: "clip_1", TagID: "tag_1", TagName: "pasta"},
		{ClipID: "clip_1", TagID: "tag_2", TagName: "dinner"},
	}

	views := NewAssembler(nil).Assemble(clips, associations)
	require.Len(t, views, 1)
	assert.Equal(t, []string{"pasta", "dinner"}, views[0].Tags)
}

func TestAssemble_UnknownCollectionFallsBack(t *testing.T) {
	clips := []ClipRow{{ID: "clip_1", CollectionID: "col_gone"}}

	views := NewAssembler([]Collection{{ID: "col_other", Name: "Workouts"}}).Assemble(clips, nil)
	require.Len(t, views, 1)
	assert.Equal(t, "None", views[0].Collection)
}

func TestAssemble_NonEmbeddableURLStillYieldsView(t *testing.T) {
	clips := []ClipRow{{ID: "clip_1", URL: "https://example.com/watch?v=123"}}

	views := NewAssembler(nil).Assemble(clips, nil)
	require.Len(t, views, 1)

	_, ok := views[0].EmbedURL()
	assert.False(t, ok)
}

func TestAssembleSnapshot(t *testing.T) {
	snapshot := &Snapshot{
		Clips:        []ClipRow{{ID: "clip_1", CollectionID: "col_1"}},
		Collections:  []Collection{{ID: "col_1", Name: "Recipes"}},
		Associations: []Association{{ClipID: "clip_1", TagID: "tag_1", TagName: "pasta"}},
	}

	views := AssembleSnapshot(snapshot)
	require.Len(t, views, 1)
	assert.Equal(t, "Recipes", views[0].Collection)
	assert.Equal(t, []string{"pasta"}, views[0].Tags)
}
