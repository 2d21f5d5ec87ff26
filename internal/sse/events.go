// Package sse implements Server-Sent Events for real-time vault updates.
package sse

import (
	"time"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventClipCreated represents a clip save event.
	EventClipCreated EventType = "clip.created"
	// EventClipDeleted represents a clip deletion event.
	EventClipDeleted EventType = "clip.deleted"

	// EventCollectionCreated represents a new collection appearing.
	EventCollectionCreated EventType = "collection.created"
	// EventTagCreated represents a new tag appearing.
	EventTagCreated EventType = "tag.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
//
// UserID filters delivery: events are only sent to connections authenticated
// as that user. OriginClient identifies the connection that caused the change
// so clients can skip events that echo their own optimistic writes.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Data         any       `json:"data"`
	Type         EventType `json:"type"`
	OriginClient string    `json:"origin_client,omitempty"`

	UserID string `json:"-"` // Delivery filter, not sent to clients.
}

// ClipEventData is the payload for clip.created events. It carries the fully
// assembled view so clients can render without extra fetches.
type ClipEventData struct {
	Clip *dto.ClipView `json:"clip"`
}

// ClipDeletedEventData is the payload for clip.deleted events.
type ClipDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ClipID    string    `json:"clip_id"`
}

// CollectionEventData is the payload for collection.created events.
type CollectionEventData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagEventData is the payload for tag.created events.
type TagEventData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewClipCreatedEvent creates a clip.created event for one user.
func NewClipCreatedEvent(userID, originClient string, clip *dto.ClipView) Event {
	return Event{
		Type:         EventClipCreated,
		Timestamp:    time.Now(),
		UserID:       userID,
		OriginClient: originClient,
		Data:         ClipEventData{Clip: clip},
	}
}

// NewClipDeletedEvent creates a clip.deleted event for one user.
func NewClipDeletedEvent(userID, originClient, clipID string) Event {
	return Event{
		Type:         EventClipDeleted,
		Timestamp:    time.Now(),
		UserID:       userID,
		OriginClient: originClient,
		Data:         ClipDeletedEventData{DeletedAt: time.Now(), ClipID: clipID},
	}
}

// NewCollectionCreatedEvent creates a collection.created event for one user.
func NewCollectionCreatedEvent(userID, originClient, collectionID, name string) Event {
	return Event{
		Type:         EventCollectionCreated,
		Timestamp:    time.Now(),
		UserID:       userID,
		OriginClient: originClient,
		Data:         CollectionEventData{ID: collectionID, Name: name},
	}
}

// NewTagCreatedEvent creates a tag.created event for one user.
func NewTagCreatedEvent(userID, originClient, tagID, name string) Event {
	return Event{
		Type:         EventTagCreated,
		Timestamp:    time.Now(),
		UserID:       userID,
		OriginClient: originClient,
		Data:         TagEventData{ID: tagID, Name: name},
	}
}

// NewHeartbeatEvent creates a heartbeat event delivered to all clients.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
		Data:      HeartbeatEventData{ServerTime: time.Now()},
	}
}
