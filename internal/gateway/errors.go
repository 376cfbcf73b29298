package gateway

import (
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"moodflix-client/pkg/apierror"
)

// decodeError turns a non-2xx backend response into an APIError. The backend
// answers with {"error": ...}, {"detail": ...} or a map of field -> messages.
func decodeError(status int, raw []byte) error {
	message, details := parseErrorBody(raw)

	code := "UPSTREAM_ERROR"
	switch status {
	case http.StatusBadRequest:
		code = "BAD_REQUEST"
	case http.StatusUnauthorized:
		code = "UNAUTHORIZED"
	case http.StatusForbidden:
		code = "FORBIDDEN"
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusConflict:
		code = "ALREADY_EXISTS"
	case http.StatusTooManyRequests:
		code = "RATE_LIMITED"
	}

	if message == "" {
		message = strings.ToLower(http.StatusText(status))
	}

	responseStatus := status
	if status >= 500 {
		responseStatus = http.StatusBadGateway
	}

	apiErr := apierror.New(code, message, details, responseStatus)
	if status >= 500 {
		apiErr = apiErr.WithReason(apierror.ReasonTransport)
	}
	if status == http.StatusBadRequest && mentionsUniqueness(raw) {
		apiErr = apiErr.WithReason(apierror.ReasonDuplicate)
	}

	return apiErr
}

func parseErrorBody(raw []byte) (string, string) {
	if len(raw) == 0 {
		return "", ""
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", strings.TrimSpace(string(raw))
	}

	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := body[key]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s, ""
			}
		}
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	first := ""
	for _, k := range keys {
		var messages []string
		if err := json.Unmarshal(body[k], &messages); err != nil || len(messages) == 0 {
			continue
		}
		if first == "" {
			first = messages[0]
		}
		parts = append(parts, k)
	}

	return first, strings.Join(parts, ",")
}

// mentionsUniqueness recognises the validation payload the backend emits when a
// (user, movie_id) pair already exists.
func mentionsUniqueness(raw []byte) bool {
	var body map[string][]string
	if err := json.Unmarshal(raw, &body); err != nil {
		return false
	}

	for _, key := range []string{"movie_id", "non_field_errors"} {
		for _, msg := range body[key] {
			lower := strings.ToLower(msg)
			if strings.Contains(lower, "unique") || strings.Contains(lower, "already") || strings.Contains(lower, "exists") {
				return true
			}
		}
	}

	return false
}
