package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/reelvault/reelvault-server/internal/domain"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncSnapshot",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/snapshot",
		Summary:     "Get sync snapshot",
		Description: "Returns the user's full dataset as normalized rows for client-side assembly",
		Tags:        []string{"Sync"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSyncSnapshot)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexClips",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/reindex",
		Summary:     "Rebuild search index",
		Description: "Reindexes all of the user's clips into the search index",
		Tags:        []string{"Sync"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindex)

	// NOTE: GET /api/v1/sync/stream (SSE) is registered directly on chi in
	// NewServer because huma doesn't support streaming responses.
}

// === DTOs ===

// GetSyncSnapshotInput contains parameters for fetching a snapshot.
type GetSyncSnapshotInput struct {
	Authorization string `header:"Authorization"`
}

// SnapshotClip is a raw clip row in a sync snapshot.
type SnapshotClip struct {
	ID           string `json:"id" doc:"Clip ID"`
	URL          string `json:"url" doc:"Bookmarked link"`
	Title        string `json:"title" doc:"Display title"`
	CollectionID string `json:"collection_id,omitempty" doc:"Collection ID, empty when uncollected"`
	CreatedAt    int64  `json:"created_at" doc:"Creation time (Unix milliseconds)"`
}

// SnapshotCollection is a raw collection row in a sync snapshot.
type SnapshotCollection struct {
	ID   string `json:"id" doc:"Collection ID"`
	Name string `json:"name" doc:"Collection name"`
}

// SnapshotTag is a raw tag row in a sync snapshot.
type SnapshotTag struct {
	ID   string `json:"id" doc:"Tag ID"`
	Name string `json:"name" doc:"Normalized tag name"`
}

// SnapshotAssociation is a raw clip-to-tag link in a sync snapshot.
type SnapshotAssociation struct {
	ClipID  string `json:"clip_id" doc:"Clip ID"`
	TagID   string `json:"tag_id" doc:"Tag ID"`
	TagName string `json:"tag_name" doc:"Denormalized tag name"`
}

// SyncSnapshotResponse contains the user's full dataset as normalized rows.
// All slices are present even when empty so clients can assemble without
// nil checks.
type SyncSnapshotResponse struct {
	Clips        []SnapshotClip        `json:"clips" doc:"Clip rows, newest first"`
	Collections  []SnapshotCollection  `json:"collections" doc:"Collection rows"`
	Tags         []SnapshotTag         `json:"tags" doc:"Tag rows"`
	Associations []SnapshotAssociation `json:"associations" doc:"Clip-to-tag links"`
}

// SyncSnapshotOutput wraps the snapshot response for Huma.
type SyncSnapshotOutput struct {
	Body SyncSnapshotResponse
}

// ReindexInput contains parameters for rebuilding the search index.
type ReindexInput struct {
	Authorization string `header:"Authorization"`
}

// ReindexResponse reports how many clips were reindexed.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Number of clips reindexed"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleGetSyncSnapshot(ctx context.Context, input *GetSyncSnapshotInput) (*SyncSnapshotOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.services.Clip.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SyncSnapshotOutput{Body: mapSnapshot(snapshot.Clips, snapshot.Collections, snapshot.Tags, snapshot.Associations)}, nil
}

func (s *Server) handleReindex(ctx context.Context, input *ReindexInput) (*ReindexOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Clip.Reindex(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ReindexOutput{Body: ReindexResponse{Indexed: count}}, nil
}

// === Helpers ===

func mapSnapshot(
	clips []*domain.Clip,
	collections []*domain.Collection,
	tags []*domain.Tag,
	associations []*domain.Association,
) SyncSnapshotResponse {
	resp := SyncSnapshotResponse{
		Clips:        make([]SnapshotClip, len(clips)),
		Collections:  make([]SnapshotCollection, len(collections)),
		Tags:         make([]SnapshotTag, len(tags)),
		Associations: make([]SnapshotAssociation, len(associations)),
	}

	for i, c := range clips {
		resp.Clips[i] = SnapshotClip{
			ID:           c.ID,
			URL:          c.URL,
			Title:        c.Title,
			CollectionID: c.CollectionID,
			CreatedAt:    c.CreatedAt.UnixMilli(),
		}
	}
	for i, c := range collections {
		resp.Collections[i] = SnapshotCollection{ID: c.ID, Name: c.Name}
	}
	for i, t := range tags {
		resp.Tags[i] = SnapshotTag{ID: t.ID, Name: t.Name}
	}
	for i, a := range associations {
		resp.Associations[i] = SnapshotAssociation{ClipID: a.ClipID, TagID: a.TagID, TagName: a.TagName}
	}

	return resp
}
