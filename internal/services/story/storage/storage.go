// Package storage defines the durable event journal consumed by the story
// session service.
package storage

import (
	"context"

	"github.com/storyloom/storyloom/internal/services/story/protocol"
)

// StoredEvent is one journaled room event with its log position.
type StoredEvent struct {
	RoomID string
	Seq    int64
	Event  protocol.Event
}

// EventJournal persists room event logs across restarts. Rooms remain
// memory-authoritative while live; the journal only seeds a freshly created
// room and records appends.
type EventJournal interface {
	// AppendEvent records one event at the given log position.
	AppendEvent(ctx context.Context, roomID string, seq int64, evt protocol.Event) error
	// ListEvents returns every journaled event for the room in log order.
	ListEvents(ctx context.Context, roomID string) ([]StoredEvent, error)
	// Close releases journal resources.
	Close() error
}
