package client

import (
	"bufio"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reelvault/reelvault-server/internal/dto"
)

// Remote event types mirrored from the server's change feed.
const (
	EventClipCreated       = "clip.created"
	EventClipDeleted       = "clip.deleted"
	EventCollectionCreated = "collection.created"
	EventTagCreated        = "tag.created"
	eventHeartbeat         = "heartbeat"
)

// RemoteEvent is one decoded change-feed event. Exactly one of the payload
// fields is set, depending on Type.
type RemoteEvent struct {
	Type         string
	OriginClient string
	Timestamp    time.Time

	Clip       *dto.ClipView // clip.created
	ClipID     string        // clip.deleted
	Collection *Collection   // collection.created (ID and Name only)
	Tag        *Tag          // tag.created
}

// FromSelf reports whether the event echoes a write made through this
// gateway instance.
func (e *RemoteEvent) FromSelf(clientID string) bool {
	return e.OriginClient != "" && e.OriginClient == clientID
}

// wireEvent is the server's SSE data envelope.
type wireEvent struct {
	Timestamp    time.Time      `json:"timestamp"`
	Type         string         `json:"type"`
	OriginClient string         `json:"origin_client"`
	Data         jsontext.Value `json:"data"`
}

// StreamEvents subscribes to the change feed and decodes events onto the
// returned channel. The channel closes when the context is canceled or the
// connection drops; callers that want a resilient feed reconnect in a loop.
// Heartbeats are consumed internally and never surface.
func (g *Gateway) StreamEvents(ctx context.Context) (<-chan RemoteEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/v1/sync/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token := g.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// The default client timeout would kill a long-lived stream.
	streamClient := &http.Client{Transport: g.http.Transport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, g.decodeError(resp)
	}

	events := make(chan RemoteEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineSize)

		var dataLine string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "data:"):
				dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "":
				// Blank line ends one SSE message.
				if dataLine == "" {
					continue
				}
				event, ok := g.decodeEvent(dataLine)
				dataLine = ""
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			g.logger.Debug("change feed closed", slog.String("error", err.Error()))
		}
	}()

	return events, nil
}

// decodeEvent parses one SSE data payload. ok=false means the event should
// be skipped, either a heartbeat or something this client version does not
// understand.
func (g *Gateway) decodeEvent(data string) (RemoteEvent, bool) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(data), &wire); err != nil {
		g.logger.Debug("undecodable change event", slog.String("error", err.Error()))
		return RemoteEvent{}, false
	}

	event := RemoteEvent{
		Type:         wire.Type,
		OriginClient: wire.OriginClient,
		Timestamp:    wire.Timestamp,
	}

	switch wire.Type {
	case EventClipCreated:
		var payload struct {
			Clip *dto.ClipView `json:"clip"`
		}
		if err := json.Unmarshal(wire.Data, &payload); err != nil || payload.Clip == nil {
			return RemoteEvent{}, false
		}
		event.Clip = payload.Clip

	case EventClipDeleted:
		var payload struct {
			ClipID string `json:"clip_id"`
		}
		if err := json.Unmarshal(wire.Data, &payload); err != nil || payload.ClipID == "" {
			return RemoteEvent{}, false
		}
		event.ClipID = payload.ClipID

	case EventCollectionCreated:
		var col Collection
		if err := json.Unmarshal(wire.Data, &col); err != nil {
			return RemoteEvent{}, false
		}
		event.Collection = &col

	case EventTagCreated:
		var tag Tag
		if err := json.Unmarshal(wire.Data, &tag); err != nil {
			return RemoteEvent{}, false
		}
		event.Tag = &tag

	case eventHeartbeat:
		return RemoteEvent{}, false

	default:
		g.logger.Debug("unknown change event type", slog.String("type", wire.Type))
		return RemoteEvent{}, false
	}

	return event, true
}
