package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"moodflix-client/internal/model"
)

const (
	MaxPictureBytes     = 5 << 20
	MaxPictureDimension = 4096
)

// Picture checks that an upload decodes as an image the backend will accept
// and normalises its filename in place.
func Picture(p *model.PictureUpload) error {
	if p == nil {
		return nil
	}

	if err := Struct(p); err != nil {
		return err
	}

	name, err := Filename(p.Filename)
	if err != nil {
		return err
	}
	p.Filename = name

	if len(p.Data) > MaxPictureBytes {
		return pictureError("profile picture exceeds 5 MiB")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return pictureError("profile picture is not a supported image")
	}

	if cfg.Width > MaxPictureDimension || cfg.Height > MaxPictureDimension {
		return pictureError(fmt.Sprintf("profile picture %s is %dx%d, larger than %dx%d",
			format, cfg.Width, cfg.Height, MaxPictureDimension, MaxPictureDimension))
	}

	return nil
}

func pictureError(message string) *Error {
	return &Error{Fields: []FieldError{{Field: "picture", Tag: "image", Message: message}}}
}
