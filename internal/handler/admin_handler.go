package handler

import (
	"context"
	"net/http"

	"moodflix-client/internal/model"
	"moodflix-client/pkg/apierror"
)

type adminGateway interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, userID int) (model.User, error)
	UpdateUserRole(ctx context.Context, userID int, update model.RoleUpdate) (model.User, error)
	DeleteUser(ctx context.Context, userID int) error
	Stats(ctx context.Context) (model.AdminStats, error)
}

// AdminHandler relays the administrative endpoints; the remote API makes the
// final authorization call.
type AdminHandler struct {
	gateway adminGateway
	session sessionMeta
}

func NewAdminHandler(gateway adminGateway, session sessionMeta) *AdminHandler {
	return &AdminHandler{gateway: gateway, session: session}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.gateway.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UserList{Users: users}, metaFor(h.session, len(users)))
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := positiveIntParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.gateway.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, metaFor(h.session, 0))
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := positiveIntParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.RoleUpdate
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.IsStaff == nil && payload.IsActive == nil {
		writeError(w, apierror.New("BAD_REQUEST", "nothing to update", "is_staff,is_active", http.StatusBadRequest))
		return
	}

	user, err := h.gateway.UpdateUserRole(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, metaFor(h.session, 0))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := positiveIntParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.gateway.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, metaFor(h.session, 0))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gateway.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, metaFor(h.session, 0))
}
