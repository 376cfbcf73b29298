package watchlist

import (
	"time"

	"moodflix-client/internal/model"
)

type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
)

type State string

const (
	StatePending    State = "pending"
	StateConfirmed  State = "confirmed"
	StateRolledBack State = "rolled_back"
	StateSuperseded State = "superseded"
)

// Mutation is one optimistic change awaiting the server. It settles only while
// the cache epoch and the key's sequence still match the values captured here.
type Mutation struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	MovieID   int       `json:"movie_id"`
	Epoch     uint64    `json:"epoch"`
	Seq       uint64    `json:"seq"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Item is an entry as the view renders it.
type Item struct {
	model.WatchlistEntry
	Pending bool `json:"pending"`
}
