package domain

import "time"

// Tag represents a user-scoped label for categorizing clips.
// Name holds the normalized form (lowercase slug) and is the source of
// truth for tag identity: at most one tag exists per (user, name).
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ClipTag represents the many-to-many relationship between clips and tags.
// Pairs are unique; associations are cascade-deleted with their clip.
type ClipTag struct {
	ClipID    string    `json:"clip_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Association is a flat (clip, tag, tag name) triple as returned by
// association listings. The denormalized TagName lets clients assemble
// display records without a second lookup per tag.
type Association struct {
	ClipID  string `json:"clip_id"`
	TagID   string `json:"tag_id"`
	TagName string `json:"tag_name"`
}
