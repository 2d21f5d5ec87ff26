package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// ClipDocument is the document structure indexed for each clip.
type ClipDocument struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Collection string   `json:"collection"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  int64    `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping (Bleve otherwise uses Go field names).
func (d *ClipDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"url":        d.URL,
		"collection": d.Collection,
		"created_at": d.CreatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

func clipToDocument(view *dto.ClipView) *ClipDocument {
	return &ClipDocument{
		ID:         view.ID,
		UserID:     view.UserID,
		Title:      view.Title,
		URL:        view.URL,
		Collection: view.Collection,
		Tags:       view.Tags,
		CreatedAt:  view.CreatedAt.UnixMilli(),
	}
}

// buildIndexMapping creates the Bleve index mapping for clip documents.
//
// Titles get English stemming for natural-language matching. Tags and
// collection names use the keyword analyzer so compound slugs like
// "slow-cooker" stay intact, and user_id is keyword so ownership filtering
// is an exact term query.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	userFieldMapping := bleve.NewTextFieldMapping()
	userFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("user_id", userFieldMapping)

	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	urlFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("url", urlFieldMapping)

	collectionFieldMapping := bleve.NewTextFieldMapping()
	collectionFieldMapping.Analyzer = keyword.Name
	collectionFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("collection", collectionFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	createdFieldMapping := bleve.NewNumericFieldMapping()
	createdFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
