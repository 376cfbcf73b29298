package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"moodflix-client/internal/model"
	"moodflix-client/pkg/apierror"
)

const maxProfileForm = 6 << 20

// profileUpdateFromRequest accepts JSON or a multipart form carrying a
// "picture" file next to the plain fields.
func profileUpdateFromRequest(w http.ResponseWriter, r *http.Request) (model.ProfileUpdate, error) {
	var update model.ProfileUpdate

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := decodeJSON(r, &update)
		return update, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProfileForm)
	if err := r.ParseMultipartForm(maxProfileForm); err != nil {
		return update, apierror.New("BAD_REQUEST", "invalid multipart form", err.Error(), http.StatusBadRequest)
	}
	defer r.MultipartForm.RemoveAll()

	for field, target := range map[string]**string{
		"email":          &update.Email,
		"bio":            &update.Bio,
		"favorite_genre": &update.FavoriteGenre,
	} {
		if values, ok := r.MultipartForm.Value[field]; ok && len(values) > 0 {
			value := values[0]
			*target = &value
		}
	}

	file, header, err := r.FormFile("picture")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return update, nil
	case err != nil:
		return update, apierror.New("BAD_REQUEST", "invalid picture upload", err.Error(), http.StatusBadRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return update, apierror.New("BAD_REQUEST", "invalid picture upload", err.Error(), http.StatusBadRequest)
	}
	update.Picture = &model.PictureUpload{Filename: header.Filename, Data: data}
	return update, nil
}
