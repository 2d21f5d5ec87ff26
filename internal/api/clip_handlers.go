package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/reelvault/reelvault-server/internal/dto"
	"github.com/reelvault/reelvault-server/internal/service"
)

func (s *Server) registerClipRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "saveClip",
		Method:      http.MethodPost,
		Path:        "/api/v1/clips",
		Summary:     "Save clip",
		Description: "Bookmarks a video link with optional collection and tags",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSaveClip)

	huma.Register(s.api, huma.Operation{
		OperationID: "listClips",
		Method:      http.MethodGet,
		Path:        "/api/v1/clips",
		Summary:     "List clips",
		Description: "Returns all clips for the current user, newest first",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListClips)

	huma.Register(s.api, huma.Operation{
		OperationID: "getClip",
		Method:      http.MethodGet,
		Path:        "/api/v1/clips/{id}",
		Summary:     "Get clip",
		Description: "Returns a clip by ID",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetClip)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteClip",
		Method:      http.MethodDelete,
		Path:        "/api/v1/clips/{id}",
		Summary:     "Delete clip",
		Description: "Deletes a clip and its tag associations",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteClip)

	huma.Register(s.api, huma.Operation{
		OperationID: "listClipAssociations",
		Method:      http.MethodGet,
		Path:        "/api/v1/clips/associations",
		Summary:     "List clip-tag associations",
		Description: "Returns flat clip-to-tag triples for client-side assembly",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAssociations)
}

// === DTOs ===

// SaveClipRequest is the request body for saving a clip.
type SaveClipRequest struct {
	URL        string   `json:"url" validate:"required,url,max=2048" doc:"Video link to bookmark"`
	Title      string   `json:"title,omitempty" validate:"omitempty,max=500" doc:"Display title. Fetched from the page when omitted."`
	Collection string   `json:"collection,omitempty" validate:"omitempty,max=100" doc:"Collection name. Blank or \"None\" means no collection."`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=100" doc:"Tag names"`
}

// SaveClipInput wraps the save clip request for Huma.
type SaveClipInput struct {
	Authorization string `header:"Authorization"`
	XClientID     string `header:"X-Client-ID" doc:"Caller's SSE client ID, echoed on events for self-suppression"`
	Body          SaveClipRequest
}

// ClipResponse contains a fully-assembled clip in API responses.
type ClipResponse struct {
	ID           string    `json:"id" doc:"Clip ID"`
	URL          string    `json:"url" doc:"Bookmarked link"`
	Title        string    `json:"title" doc:"Display title"`
	CollectionID string    `json:"collection_id,omitempty" doc:"Collection ID, empty when uncollected"`
	Collection   string    `json:"collection" doc:"Collection display name, \"None\" when uncollected"`
	Tags         []string  `json:"tags" doc:"Tag names"`
	EmbedURL     string    `json:"embed_url,omitempty" doc:"Embeddable player URL, empty when the link has no embed form"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
}

// ClipOutput wraps a single clip response for Huma.
type ClipOutput struct {
	Body ClipResponse
}

// ListClipsInput contains parameters for listing clips.
type ListClipsInput struct {
	Authorization string `header:"Authorization"`
}

// ListClipsResponse contains a list of clips.
type ListClipsResponse struct {
	Clips []ClipResponse `json:"clips" doc:"Clips, newest first"`
}

// ListClipsOutput wraps the list clips response for Huma.
type ListClipsOutput struct {
	Body ListClipsResponse
}

// GetClipInput contains parameters for getting a clip.
type GetClipInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Clip ID"`
}

// DeleteClipInput contains parameters for deleting a clip.
type DeleteClipInput struct {
	Authorization string `header:"Authorization"`
	XClientID     string `header:"X-Client-ID" doc:"Caller's SSE client ID, echoed on events for self-suppression"`
	ID            string `path:"id" doc:"Clip ID"`
}

// ListAssociationsInput contains parameters for listing associations.
type ListAssociationsInput struct {
	Authorization string `header:"Authorization"`
}

// AssociationResponse is a flat clip-to-tag link.
type AssociationResponse struct {
	ClipID  string `json:"clip_id" doc:"Clip ID"`
	TagID   string `json:"tag_id" doc:"Tag ID"`
	TagName string `json:"tag_name" doc:"Denormalized tag name"`
}

// ListAssociationsResponse contains all clip-to-tag links for a user.
type ListAssociationsResponse struct {
	Associations []AssociationResponse `json:"associations" doc:"Clip-to-tag links"`
}

// ListAssociationsOutput wraps the associations response for Huma.
type ListAssociationsOutput struct {
	Body ListAssociationsResponse
}

// === Handlers ===

func (s *Server) handleSaveClip(ctx context.Context, input *SaveClipInput) (*ClipOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Clip.SaveClip(ctx, service.SaveClipRequest{
		URL:          input.Body.URL,
		Title:        input.Body.Title,
		Collection:   input.Body.Collection,
		Tags:         input.Body.Tags,
		UserID:       userID,
		OriginClient: input.XClientID,
	})
	if err != nil {
		return nil, err
	}

	return &ClipOutput{Body: mapClipView(view)}, nil
}

func (s *Server) handleListClips(ctx context.Context, input *ListClipsInput) (*ListClipsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	views, err := s.services.Clip.ListClips(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]ClipResponse, len(views))
	for i := range views {
		resp[i] = mapClipView(&views[i])
	}

	return &ListClipsOutput{Body: ListClipsResponse{Clips: resp}}, nil
}

func (s *Server) handleGetClip(ctx context.Context, input *GetClipInput) (*ClipOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Clip.GetClip(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ClipOutput{Body: mapClipView(view)}, nil
}

func (s *Server) handleDeleteClip(ctx context.Context, input *DeleteClipInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Clip.DeleteClip(ctx, userID, input.ID, input.XClientID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Clip deleted"}}, nil
}

func (s *Server) handleListAssociations(ctx context.Context, input *ListAssociationsInput) (*ListAssociationsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	assocs, err := s.store.ListAssociationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]AssociationResponse, len(assocs))
	for i, a := range assocs {
		resp[i] = AssociationResponse{
			ClipID:  a.ClipID,
			TagID:   a.TagID,
			TagName: a.TagName,
		}
	}

	return &ListAssociationsOutput{Body: ListAssociationsResponse{Associations: resp}}, nil
}

// === Helpers ===

func mapClipView(v *dto.ClipView) ClipResponse {
	embedURL, _ := v.EmbedURL()
	return ClipResponse{
		ID:           v.ID,
		URL:          v.URL,
		Title:        v.Title,
		CollectionID: v.CollectionID,
		Collection:   v.Collection,
		Tags:         v.Tags,
		EmbedURL:     embedURL,
		CreatedAt:    v.CreatedAt,
	}
}
