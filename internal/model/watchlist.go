package model

import "time"

// WatchlistEntry is keyed by MovieID; ID is the server row id and stays zero until confirmed.
type WatchlistEntry struct {
	ID         int       `json:"id,omitempty"`
	MovieID    int       `json:"movie_id" validate:"required,gt=0"`
	Title      string    `json:"title" validate:"required,max=200"`
	PosterPath string    `json:"poster_path" validate:"max=200"`
	AddedAt    time.Time `json:"added_at,omitzero"`
}

type WatchlistEntryList struct {
	Entries []WatchlistEntry `json:"entries"`
}

type WatchlistMembership struct {
	MovieID     int  `json:"movie_id"`
	InWatchlist bool `json:"in_watchlist"`
}
