package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"moodflix-client/internal/model"
)

// UpdateProfile sends a partial profile update. A picture forces a multipart
// body using the dotted field names the backend's nested serializer expects.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	var user model.User

	if update.Picture == nil {
		err := c.do(ctx, request{method: http.MethodPut, path: "profile/", endpoint: "profile", body: profileJSON(update)}, &user)
		return user, err
	}

	body, contentType, err := profileMultipart(update)
	if err != nil {
		return model.User{}, err
	}

	err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        "profile/",
		endpoint:    "profile",
		rawBody:     body,
		contentType: contentType,
	}, &user)
	return user, err
}

type profilePayload struct {
	Email   *string            `json:"email,omitempty"`
	Profile profileFieldsPatch `json:"profile"`
}

type profileFieldsPatch struct {
	Bio           *string `json:"bio,omitempty"`
	FavoriteGenre *string `json:"favorite_genre,omitempty"`
}

func profileJSON(update model.ProfileUpdate) profilePayload {
	return profilePayload{
		Email: update.Email,
		Profile: profileFieldsPatch{
			Bio:           update.Bio,
			FavoriteGenre: update.FavoriteGenre,
		},
	}
}

func profileMultipart(update model.ProfileUpdate) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value *string
	}{
		{"email", update.Email},
		{"profile.bio", update.Bio},
		{"profile.favorite_genre", update.FavoriteGenre},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := w.WriteField(f.name, *f.value); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", f.name, err)
		}
	}

	part, err := w.CreateFormFile("profile.profile_picture", update.Picture.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create picture part: %w", err)
	}
	if _, err := part.Write(update.Picture.Data); err != nil {
		return nil, "", fmt.Errorf("write picture part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
