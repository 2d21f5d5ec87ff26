// Package dto provides Data Transfer Objects for API responses and SSE events.
//
// DTOs contain denormalized fields for immediate client rendering while
// preserving normalized IDs for relationships. This ensures self-contained,
// immediately-renderable data across both list APIs and real-time SSE events.
package dto

import (
	"time"

	"github.com/reelvault/reelvault-server/internal/domain"
)

// ClipView is the client-facing, flattened representation of a clip.
//
// SSE events are UI updates, not database replication, so a view must carry
// everything needed to render immediately: the collection display name and
// the tag names, not just their IDs. Missing data degrades gracefully:
// no collection renders as "None", no tags as an empty list.
type ClipView struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	UserID       string    `json:"user_id"`
	CollectionID string    `json:"collection_id,omitempty"`
	Collection   string    `json:"collection"` // Denormalized display name, "None" when absent
	Tags         []string  `json:"tags"`       // Denormalized tag names, never nil
	CreatedAt    time.Time `json:"created_at"`
}

// EmbedURL returns the embeddable player URL for the view's clip.
// ok=false means the URL is not embeddable and renderers should show a
// "not available" placeholder instead of failing.
func (v *ClipView) EmbedURL() (string, bool) {
	c := domain.Clip{URL: v.URL}
	return c.EmbedURL()
}

// NewClipView builds a view from a clip, its collection name, and tag names.
// Pass an empty collectionName for clips without a collection.
func NewClipView(clip *domain.Clip, collectionName string, tagNames []string) ClipView {
	if collectionName == "" {
		collectionName = domain.DefaultCollectionName
	}
	if tagNames == nil {
		tagNames = []string{}
	}
	return ClipView{
		ID:           clip.ID,
		URL:          clip.URL,
		Title:        clip.Title,
		UserID:       clip.UserID,
		CollectionID: clip.CollectionID,
		Collection:   collectionName,
		Tags:         tagNames,
		CreatedAt:    clip.CreatedAt,
	}
}
