package handler

import (
	"net/http"
	"strings"

	"moodflix-client/internal/guard"
	"moodflix-client/internal/metrics"
	"moodflix-client/internal/model"
	"moodflix-client/internal/validation"
)

type authState interface {
	sessionMeta
	State() model.AuthState
}

// NavigateHandler answers the view's "may I show this page" question.
type NavigateHandler struct {
	navigator *guard.Navigator
	session   authState
}

func NewNavigateHandler(navigator *guard.Navigator, session authState) *NavigateHandler {
	return &NavigateHandler{navigator: navigator, session: session}
}

func (h *NavigateHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	req := model.NavigateRequest{Path: strings.TrimSpace(r.URL.Query().Get("path"))}
	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	nav := h.navigator.Navigate(h.session.State(), req.Path)
	metrics.GuardDecisions.WithLabelValues(string(nav.Decision.Outcome)).Inc()
	writeSuccess(w, http.StatusOK, nav, metaFor(h.session, 0))
}

func (h *NavigateHandler) Views(w http.ResponseWriter, _ *http.Request) {
	views := h.navigator.Views()
	writeSuccess(w, http.StatusOK, views, metaFor(h.session, len(views)))
}
