package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"moodflix-client/internal/model"
	"moodflix-client/internal/validation"
	"moodflix-client/pkg/apierror"
)

const maxJSONBody = 1 << 20

// sessionMeta is what a handler needs to stamp responses with the session generation.
type sessionMeta interface {
	Epoch() uint64
	Resolving() bool
}

func metaFor(s sessionMeta, total int) *model.Meta {
	return &model.Meta{Total: total, SessionEpoch: s.Epoch(), Resolving: s.Resolving()}
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected client error",
	}

	var (
		validationErr *validation.Error
		apiErr        *apierror.APIError
	)
	switch {
	case errors.As(err, &validationErr):
		mapped := validationErr.ToAPIError()
		status, body.Code, body.Message, body.Details = mapped.HTTPStatus, mapped.Code, mapped.Message, mapped.Details
	case errors.Is(err, model.ErrDuplicateEntry):
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "Movie is already in the watchlist"
	case errors.Is(err, model.ErrEntryNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Movie is not in the watchlist"
	case errors.Is(err, model.ErrSessionEnded):
		status = http.StatusConflict
		body.Code = "SESSION_ENDED"
		body.Message = "The session ended before the change was applied"
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	case errors.Is(err, model.ErrMutationFailed) && errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = "MUTATION_FAILED"
		body.Message = "Watchlist change was rolled back"
		body.Details = apiErr.Message
	case errors.Is(err, model.ErrMutationFailed):
		status = http.StatusBadGateway
		body.Code = "MUTATION_FAILED"
		body.Message = "Watchlist change was rolled back"
		body.Details = err.Error()
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrNotAuthenticated), errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	case errors.Is(err, model.ErrMovieNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Movie not found"
	case errors.Is(err, model.ErrMetadataNotConfigured):
		status = http.StatusNotImplemented
		body.Code = "NOT_CONFIGURED"
		body.Message = "Movie details are not configured"
	case errors.Is(err, model.ErrMetadataUnavailable):
		status = http.StatusServiceUnavailable
		body.Code = "UPSTREAM_UNAVAILABLE"
		body.Message = "Movie details are temporarily unavailable"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}
	return nil
}

func positiveIntParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, apierror.New("BAD_REQUEST", name+" must be a positive integer", name, http.StatusBadRequest)
	}
	return value, nil
}
