package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"moodflix-client/internal/model"
)

// Recommendations asks the backend for movies matching a mood. Older backends
// answer with a bare array, newer ones wrap it in {"recommendations": [...]}.
func (c *Client) Recommendations(ctx context.Context, mood string) (model.Recommendation, error) {
	mood = strings.TrimSpace(mood)

	var raw json.RawMessage
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "recommendations/",
		endpoint: "recommendations",
		query:    url.Values{"mood": []string{mood}},
	}, &raw)
	if err != nil {
		return model.Recommendation{}, err
	}

	result := model.Recommendation{Mood: mood, Movies: []model.Movie{}}
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "" || trimmed == "null":
		return result, nil
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw, &result.Movies); err != nil {
			return model.Recommendation{}, fmt.Errorf("decode recommendations: %w", err)
		}
	default:
		var wrapped model.Recommendation
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return model.Recommendation{}, fmt.Errorf("decode recommendations: %w", err)
		}
		if wrapped.Movies != nil {
			result.Movies = wrapped.Movies
		}
	}

	return result, nil
}
