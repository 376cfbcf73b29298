package middleware

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"moodflix-client/internal/model"
)

// Timeout bounds a request, covering the calls it makes to the remote API.
// Do not mount it on the websocket route: the wrapped writer cannot be hijacked.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: "REQUEST_TIMEOUT", Message: "request timed out"},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
