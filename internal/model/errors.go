package model

import "errors"

var (
	// Session related errors
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionEnded       = errors.New("session ended")

	// Watchlist related errors
	ErrDuplicateEntry = errors.New("already in watchlist")
	ErrEntryNotFound  = errors.New("watchlist entry not found")
	ErrMutationFailed = errors.New("watchlist update failed")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Metadata related errors
	ErrMovieNotFound         = errors.New("movie not found")
	ErrMetadataUnavailable   = errors.New("movie metadata unavailable")
	ErrMetadataNotConfigured = errors.New("movie metadata lookup is not configured")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
