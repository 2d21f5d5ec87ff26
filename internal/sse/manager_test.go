package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault-server/internal/dto"
)

func testManager(t *testing.T) (*Manager, context.CancelFunc) {
	t.Helper()

	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	return m, cancel
}

func waitForEvent(t *testing.T, ch chan Event, eventType EventType) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == eventType {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}

func TestManagerDeliversToMatchingUser(t *testing.T) {
	m, cancel := testManager(t)
	defer cancel()

	client, err := m.Connect("user-001")
	require.NoError(t, err)
	defer m.Disconnect(client.ID)

	view := &dto.ClipView{ID: "clip-001", Title: "Pasta hack"}
	m.Emit(NewClipCreatedEvent("user-001", "client-a", view))

	evt := waitForEvent(t, client.EventChan, EventClipCreated)
	assert.Equal(t, "client-a", evt.OriginClient)

	data, ok := evt.Data.(ClipEventData)
	require.True(t, ok)
	assert.Equal(t, "clip-001", data.Clip.ID)
}

func TestManagerFiltersOtherUsers(t *testing.T) {
	m, cancel := testManager(t)
	defer cancel()

	mine, err := m.Connect("user-001")
	require.NoError(t, err)
	defer m.Disconnect(mine.ID)

	theirs, err := m.Connect("user-002")
	require.NoError(t, err)
	defer m.Disconnect(theirs.ID)

	m.Emit(NewClipDeletedEvent("user-001", "", "clip-001"))

	waitForEvent(t, mine.EventChan, EventClipDeleted)

	select {
	case evt := <-theirs.EventChan:
		assert.NotEqual(t, EventClipDeleted, evt.Type, "event leaked to wrong user")
	case <-time.After(100 * time.Millisecond):
		// Nothing delivered, as expected.
	}
}

func TestManagerClientCount(t *testing.T) {
	m, cancel := testManager(t)
	defer cancel()

	assert.Equal(t, 0, m.ClientCount())

	client, err := m.Connect("user-001")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())
}

func TestManagerShutdownDrainsAndCloses(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	defer cancel()

	client, err := m.Connect("user-001")
	require.NoError(t, err)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, m.Shutdown(shutdownCtx))

	// Emitting after shutdown must not panic.
	m.Emit(NewClipDeletedEvent("user-001", "", "clip-001"))

	cancel()

	// The client's Done channel closes once the manager stops.
	select {
	case <-client.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not closed on shutdown")
	}
}
