package handler

import (
	"context"
	"net/http"
	"strings"

	"moodflix-client/internal/model"
	"moodflix-client/internal/validation"
)

type recommender interface {
	Recommendations(ctx context.Context, mood string) (model.Recommendation, error)
}

type movieDetails interface {
	Movie(ctx context.Context, id int) (model.Movie, error)
}

type membership interface {
	Contains(movieID int) bool
}

// MovieCard is a movie as the views list it, flagged when already saved.
type MovieCard struct {
	model.Movie
	InWatchlist bool `json:"in_watchlist"`
}

type RecommendationView struct {
	Mood   string      `json:"mood"`
	Movies []MovieCard `json:"recommendations"`
}

type MovieHandler struct {
	recommender recommender
	details     movieDetails
	watchlist   membership
	session     sessionMeta
}

func NewMovieHandler(recommender recommender, details movieDetails, watchlist membership, session sessionMeta) *MovieHandler {
	return &MovieHandler{recommender: recommender, details: details, watchlist: watchlist, session: session}
}

func (h *MovieHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	query := model.RecommendationQuery{Mood: strings.TrimSpace(r.URL.Query().Get("mood"))}
	if err := validation.Struct(query); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.recommender.Recommendations(r.Context(), query.Mood)
	if err != nil {
		writeError(w, err)
		return
	}

	view := RecommendationView{Mood: rec.Mood, Movies: make([]MovieCard, 0, len(rec.Movies))}
	for _, movie := range rec.Movies {
		view.Movies = append(view.Movies, MovieCard{Movie: movie, InWatchlist: h.watchlist.Contains(movie.ID)})
	}

	writeSuccess(w, http.StatusOK, view, metaFor(h.session, len(view.Movies)))
}

func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movieID, err := positiveIntParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	movie, err := h.details.Movie(r.Context(), movieID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, MovieCard{Movie: movie, InWatchlist: h.watchlist.Contains(movie.ID)}, metaFor(h.session, 0))
}
