package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSessionResolved       Type = "session.resolved"
	TypeSessionCleared        Type = "session.cleared"
	TypeSessionProfileUpdated Type = "session.profile_updated"
	TypeWatchlistAdded        Type = "watchlist.added"
	TypeWatchlistConfirmed    Type = "watchlist.confirmed"
	TypeWatchlistRemoved      Type = "watchlist.removed"
	TypeWatchlistRolledBack   Type = "watchlist.rolled_back"
	TypeWatchlistReset        Type = "watchlist.reset"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
	Epoch     uint64 `json:"epoch"` // session generation the event belongs to
}

func New(t Type, epoch uint64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Epoch:     epoch,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event)
	return ch, func() {}
}
