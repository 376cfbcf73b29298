package model

import "time"

type Profile struct {
	Bio            string `json:"bio"`
	FavoriteGenre  string `json:"favorite_genre"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    *bool     `json:"is_active,omitempty"`
	DateJoined  time.Time `json:"date_joined"`
	Profile     *Profile  `json:"profile,omitempty"`
}

// IsPrivileged reports whether the user holds the administrative role.
func (u *User) IsPrivileged() bool {
	return u != nil && u.IsStaff
}

// Clone returns a deep copy so callers never share the store's record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	clone := *u
	if u.Profile != nil {
		profile := *u.Profile
		clone.Profile = &profile
	}
	if u.IsActive != nil {
		active := *u.IsActive
		clone.IsActive = &active
	}
	return &clone
}
