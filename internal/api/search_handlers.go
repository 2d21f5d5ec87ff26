package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchClips",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search clips",
		Description: "Full-text search over the current user's clip titles, tags, and collections",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching clips.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" validate:"omitempty,max=200" doc:"Search text. Empty returns all clips for the user."`
	Limit         int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID         string            `json:"id" doc:"Clip ID"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Title      string            `json:"title" doc:"Clip title"`
	URL        string            `json:"url" doc:"Bookmarked link"`
	Collection string            `json:"collection,omitempty" doc:"Collection name"`
	Tags       []string          `json:"tags,omitempty" doc:"Tag names"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Clip.Search(ctx, userID, input.Query, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResult, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResult{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Title,
			URL:        h.URL,
			Collection: h.Collection,
			Tags:       h.Tags,
			Highlights: h.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}
