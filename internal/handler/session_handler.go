package handler

import (
	"context"
	"net/http"
	"strings"

	"moodflix-client/internal/model"
)

type sessionService interface {
	sessionMeta
	State() model.AuthState
	Resolve(ctx context.Context) model.AuthState
	Login(ctx context.Context, creds model.Credentials) (model.AuthState, error)
	Register(ctx context.Context, reg model.Registration) (model.AuthState, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error)
}

type SessionHandler struct {
	session sessionService
}

func NewSessionHandler(session sessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

type logoutResult struct {
	State       model.AuthState `json:"state"`
	ServerError string          `json:"server_error,omitempty"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.session.State(), metaFor(h.session, 0))
}

// Resolve, Login and Register run to completion even if the browser gives up,
// so an abandoned request cannot sign the user out.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	state := h.session.Resolve(context.WithoutCancel(r.Context()))
	writeSuccess(w, http.StatusOK, state, metaFor(h.session, 0))
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.Credentials
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)

	state, err := h.session.Login(context.WithoutCancel(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, state, metaFor(h.session, 0))
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.Registration
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)

	state, err := h.session.Register(context.WithoutCancel(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, state, metaFor(h.session, 0))
}

// Logout always answers with the cleared state; a failed server call is reported alongside.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	result := logoutResult{}
	if err := h.session.Logout(r.Context()); err != nil {
		result.ServerError = err.Error()
	}
	result.State = h.session.State()

	writeSuccess(w, http.StatusOK, result, metaFor(h.session, 0))
}

func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	update, err := profileUpdateFromRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.session.UpdateProfile(r.Context(), update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, metaFor(h.session, 0))
}
