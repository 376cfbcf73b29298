package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason distinguishes failures that callers handle differently from a generic error.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonDuplicate Reason = "duplicate"
	ReasonNotFound  Reason = "not_found"
	ReasonAuth      Reason = "auth"
	ReasonTransport Reason = "transport"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Reason     Reason `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status, Reason: reasonForStatus(status)}
}

// WithReason returns a copy tagged with reason.
func (e *APIError) WithReason(reason Reason) *APIError {
	clone := *e
	clone.Reason = reason
	return &clone
}

// ReasonOf reports the Reason carried by err, or ReasonNone.
func ReasonOf(err error) Reason {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return ReasonNone
}

func reasonForStatus(status int) Reason {
	switch status {
	case http.StatusConflict:
		return ReasonDuplicate
	case http.StatusNotFound:
		return ReasonNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ReasonAuth
	default:
		return ReasonNone
	}
}
