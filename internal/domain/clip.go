package domain

import (
	"strings"
	"time"
)

// Clip represents a saved bookmark to an external short-video clip.
// Clips are created and deleted but never edited in place: there is no
// update flow, so a clip's URL and title are immutable once saved.
type Clip struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	UserID       string    `json:"user_id"`
	CollectionID string    `json:"collection_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmbedID extracts the clip identifier from an Instagram reel URL.
// Returns ok=false when the URL does not match the expected /reel/ shape;
// such clips are still valid bookmarks, they just cannot be embedded and
// renderers substitute a placeholder.
func (c *Clip) EmbedID() (string, bool) {
	_, after, found := strings.Cut(c.URL, "/reel/")
	if !found {
		return "", false
	}
	embedID, _, _ := strings.Cut(after, "/")
	if embedID == "" {
		return "", false
	}
	return embedID, true
}

// EmbedURL returns the embeddable player URL for the clip.
// ok=false means the clip URL is not embeddable.
func (c *Clip) EmbedURL() (string, bool) {
	embedID, ok := c.EmbedID()
	if !ok {
		return "", false
	}
	return "https://www.instagram.com/reel/" + embedID + "/embed", true
}
