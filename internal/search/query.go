package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a clip search.
type Params struct {
	UserID string // Required: results are always scoped to one user.
	Query  string // User's search text.

	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matching clip.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	Collection string            `json:"collection,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a clip search scoped to one user.
func (s *ClipIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildClipQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"id", "title", "url", "collection", "tags"}
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if u, ok := hit.Fields["url"].(string); ok {
			h.URL = u
		}
		if c, ok := hit.Fields["collection"].(string); ok {
			h.Collection = c
		}
		switch tags := hit.Fields["tags"].(type) {
		case string:
			h.Tags = []string{tags}
		case []interface{}:
			for _, tag := range tags {
				if ts, ok := tag.(string); ok {
					h.Tags = append(h.Tags, ts)
				}
			}
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildClipQuery constructs the Bleve query: an ownership term filter
// conjoined with a disjunction over title, tags, and collection.
func buildClipQuery(params Params) query.Query {
	ownerQuery := bleve.NewTermQuery(params.UserID)
	ownerQuery.SetField("user_id")

	text := strings.TrimSpace(params.Query)
	if text == "" {
		return ownerQuery
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(2.0)

	// Fuzzy fallback catches typos in longer words.
	titleFuzzy := bleve.NewMatchQuery(text)
	titleFuzzy.SetField("title")
	titleFuzzy.SetFuzziness(1)

	tagTerm := bleve.NewTermQuery(strings.ToLower(text))
	tagTerm.SetField("tags")
	tagTerm.SetBoost(1.5)

	collectionTerm := bleve.NewTermQuery(text)
	collectionTerm.SetField("collection")

	textQuery := bleve.NewDisjunctionQuery(titleMatch, titleFuzzy, tagTerm, collectionTerm)

	return bleve.NewConjunctionQuery(ownerQuery, textQuery)
}
