package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/reelvault/reelvault-server/internal/errors"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Description: "Returns all collections for the current user, sorted by name",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID: "createCollection",
		Method:      http.MethodPost,
		Path:        "/api/v1/collections",
		Summary:     "Create collection",
		Description: "Creates a collection, or returns the existing one with the same name",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCollection)
}

// === DTOs ===

// ListCollectionsInput contains parameters for listing collections.
type ListCollectionsInput struct {
	Authorization string `header:"Authorization"`
}

// CollectionResponse contains collection data in API responses.
type CollectionResponse struct {
	ID        string    `json:"id" doc:"Collection ID"`
	Name      string    `json:"name" doc:"Collection name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListCollectionsResponse contains a list of collections.
type ListCollectionsResponse struct {
	Collections []CollectionResponse `json:"collections" doc:"Collections sorted by name"`
}

// ListCollectionsOutput wraps the list collections response for Huma.
type ListCollectionsOutput struct {
	Body ListCollectionsResponse
}

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" doc:"Collection name"`
}

// CreateCollectionInput wraps the create collection request for Huma.
type CreateCollectionInput struct {
	Authorization string `header:"Authorization"`
	XClientID     string `header:"X-Client-ID" doc:"Caller's SSE client ID, echoed on events for self-suppression"`
	Body          CreateCollectionRequest
}

// CollectionOutput wraps a single collection response for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// === Handlers ===

func (s *Server) handleListCollections(ctx context.Context, input *ListCollectionsInput) (*ListCollectionsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	collections, err := s.store.ListCollectionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]CollectionResponse, len(collections))
	for i, c := range collections {
		resp[i] = CollectionResponse{
			ID:        c.ID,
			Name:      c.Name,
			CreatedAt: c.CreatedAt,
		}
	}

	return &ListCollectionsOutput{Body: ListCollectionsResponse{Collections: resp}}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	col, err := s.services.Resolver.ResolveCollection(ctx, userID, input.Body.Name, input.XClientID)
	if err != nil {
		return nil, err
	}
	if col == nil {
		// Blank or the reserved "None" label after trimming.
		return nil, domainerrors.Validation("collection name is required")
	}

	return &CollectionOutput{
		Body: CollectionResponse{
			ID:        col.ID,
			Name:      col.Name,
			CreatedAt: col.CreatedAt,
		},
	}, nil
}
