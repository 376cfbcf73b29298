package handler

import (
	"context"
	"net/http"

	"moodflix-client/internal/model"
	"moodflix-client/internal/watchlist"
)

type watchlistService interface {
	Items() []watchlist.Item
	InFlight() []watchlist.Mutation
	Contains(movieID int) bool
	Add(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error)
	Remove(ctx context.Context, movieID int) error
}

type WatchlistHandler struct {
	cache   watchlistService
	session sessionMeta
}

func NewWatchlistHandler(cache watchlistService, session sessionMeta) *WatchlistHandler {
	return &WatchlistHandler{cache: cache, session: session}
}

func (h *WatchlistHandler) List(w http.ResponseWriter, _ *http.Request) {
	items := h.cache.Items()
	writeSuccess(w, http.StatusOK, items, metaFor(h.session, len(items)))
}

// Mutations lists the changes still waiting on the server, oldest first.
func (h *WatchlistHandler) Mutations(w http.ResponseWriter, _ *http.Request) {
	pending := h.cache.InFlight()
	writeSuccess(w, http.StatusOK, pending, metaFor(h.session, len(pending)))
}

func (h *WatchlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	movieID, err := positiveIntParam(r, "movie_id")
	if err != nil {
		writeError(w, err)
		return
	}

	membership := model.WatchlistMembership{MovieID: movieID, InWatchlist: h.cache.Contains(movieID)}
	writeSuccess(w, http.StatusOK, membership, metaFor(h.session, 0))
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var entry model.WatchlistEntry
	if err := decodeJSON(r, &entry); err != nil {
		writeError(w, err)
		return
	}
	entry.ID = 0

	// The mutation settles even if the browser goes away mid-request.
	created, err := h.cache.Add(context.WithoutCancel(r.Context()), entry)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, metaFor(h.session, 0))
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	movieID, err := positiveIntParam(r, "movie_id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.cache.Remove(context.WithoutCancel(r.Context()), movieID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"removed": true, "movie_id": movieID}, metaFor(h.session, 0))
}
