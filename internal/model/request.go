package model

type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

type PictureUpload struct {
	Filename string `json:"filename" validate:"required"`
	Data     []byte `json:"data" validate:"required"`
}

// ProfileUpdate carries only the fields the user changed.
type ProfileUpdate struct {
	Email         *string        `json:"email,omitempty" validate:"omitempty,email"`
	Bio           *string        `json:"bio,omitempty" validate:"omitempty,max=2000"`
	FavoriteGenre *string        `json:"favorite_genre,omitempty" validate:"omitempty,max=100"`
	Picture       *PictureUpload `json:"picture,omitempty"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.Bio == nil && p.FavoriteGenre == nil && p.Picture == nil
}

type RecommendationQuery struct {
	Mood string `validate:"required,max=100"`
}

type NavigateRequest struct {
	Path string `validate:"required,startswith=/"`
}
