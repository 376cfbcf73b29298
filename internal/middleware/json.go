package middleware

import (
	"net/http"

	"github.com/goccy/go-json"

	"moodflix-client/internal/model"
)

func writeError(w http.ResponseWriter, status int, code string, message string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
