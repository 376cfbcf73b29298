package gateway

import (
	"context"
	"fmt"
	"net/http"

	"moodflix-client/internal/model"
	"moodflix-client/pkg/apierror"
)

type createWatchlistRequest struct {
	MovieID    int    `json:"movie_id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

func (c *Client) Watchlist(ctx context.Context) ([]model.WatchlistEntry, error) {
	entries := make([]model.WatchlistEntry, 0)
	if err := c.do(ctx, request{method: http.MethodGet, path: "watchlist/", endpoint: "watchlist"}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddToWatchlist returns the server's record. A (user, movie) pair that already
// exists fails with Reason duplicate.
func (c *Client) AddToWatchlist(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	payload := createWatchlistRequest{MovieID: entry.MovieID, Title: entry.Title, PosterPath: entry.PosterPath}

	var created model.WatchlistEntry
	err := c.do(ctx, request{method: http.MethodPost, path: "watchlist/", endpoint: "watchlist", body: payload}, &created)
	if err != nil {
		return model.WatchlistEntry{}, err
	}
	if created.MovieID == 0 {
		created.MovieID = entry.MovieID
	}
	return created, nil
}

// RemoveFromWatchlist deletes by movie id; an entry the server does not have
// fails with Reason not_found.
func (c *Client) RemoveFromWatchlist(ctx context.Context, movieID int) error {
	if movieID <= 0 {
		return apierror.New("BAD_REQUEST", "movie id must be positive", fmt.Sprint(movieID), http.StatusBadRequest)
	}
	path := fmt.Sprintf("watchlist/%d/", movieID)
	return c.do(ctx, request{method: http.MethodDelete, path: path, endpoint: "watchlist_item"}, nil)
}
