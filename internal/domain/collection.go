package domain

import "time"

// Collection represents a user-defined named grouping of clips.
// A clip belongs to at most one collection. Collections are created lazily
// the first time a user types a new name while saving a clip, and are never
// deleted by clients.
//
// Name matching is case-sensitive: "Recipes" and "recipes" are distinct
// collections. Tags are the normalized namespace; collections are verbatim
// labels.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCollectionName is the display name used for clips without a collection.
const DefaultCollectionName = "None"
