package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthStateConstructors(t *testing.T) {
	t.Parallel()

	require.False(t, UnresolvedState().IsResolved())
	require.True(t, AnonymousState().IsResolved())
	require.False(t, AnonymousState().IsAuthenticated())

	user := User{ID: 1, Username: "ana", Profile: &Profile{Bio: "hi"}}
	state := AuthenticatedState(user)
	require.True(t, state.IsAuthenticated())

	state.User.Profile.Bio = "changed"
	require.Equal(t, "hi", user.Profile.Bio)
}

func TestUserIsPrivileged(t *testing.T) {
	t.Parallel()

	var nilUser *User
	require.False(t, nilUser.IsPrivileged())
	require.False(t, (&User{}).IsPrivileged())
	require.True(t, (&User{IsStaff: true}).IsPrivileged())
}

func TestMovieWatchlistEntry(t *testing.T) {
	t.Parallel()

	entry := Movie{ID: 42, Title: "X", PosterPath: "/x.jpg", Overview: "ignored"}.WatchlistEntry()
	require.Equal(t, WatchlistEntry{MovieID: 42, Title: "X", PosterPath: "/x.jpg"}, entry)
}
