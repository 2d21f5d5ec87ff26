package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/reelvault/reelvault-server/internal/errors"
)

func (s *Server) registerTitleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "fetchTitle",
		Method:      http.MethodGet,
		Path:        "/api/v1/title",
		Summary:     "Fetch page title",
		Description: "Fetches the page title for a URL to prefill the clip form",
		Tags:        []string{"Clips"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFetchTitle)
}

// === DTOs ===

// FetchTitleInput contains parameters for fetching a page title.
type FetchTitleInput struct {
	Authorization string `header:"Authorization"`
	URL           string `query:"url" validate:"required,url,max=2048" doc:"Page URL"`
}

// TitleResponse contains a fetched page title.
type TitleResponse struct {
	Title string `json:"title" doc:"Page title, preferring og:title"`
}

// TitleOutput wraps the title response for Huma.
type TitleOutput struct {
	Body TitleResponse
}

// === Handlers ===

func (s *Server) handleFetchTitle(ctx context.Context, input *FetchTitleInput) (*TitleOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if s.services.Title == nil {
		return nil, domainerrors.Internal("title fetch is not available")
	}

	title, err := s.services.Title.FetchTitle(ctx, input.URL)
	if err != nil {
		return nil, domainerrors.NotFound("no title found for that page").WithCause(err)
	}

	return &TitleOutput{Body: TitleResponse{Title: title}}, nil
}
