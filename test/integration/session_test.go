//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodflix-client/internal/guard"
	"moodflix-client/internal/model"
)

func TestStartupResolvesAnonymous(t *testing.T) {
	server, _, _ := newClient(t, nil)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state model.AuthState
	require.NoError(t, json.Unmarshal(body.Data, &state))
	assert.Equal(t, model.AuthUnauthenticated, state.Status)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/watchlist", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", body.Error.Details)
}

func TestLoginSeedsWatchlistAndLogoutClearsIt(t *testing.T) {
	server, backend, _ := newClient(t, nil)
	userID := backend.AddUser("alice", "correct-horse", false)
	backend.SeedWatchlist(userID, model.WatchlistEntry{MovieID: 603, Title: "The Matrix"})

	login(t, server, "alice", "correct-horse")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/watchlist/603", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var membership model.WatchlistMembership
	require.NoError(t, json.Unmarshal(body.Data, &membership))
	assert.True(t, membership.InWatchlist)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/watchlist/603", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/session/resolve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state model.AuthState
	require.NoError(t, json.Unmarshal(body.Data, &state))
	assert.Equal(t, model.AuthUnauthenticated, state.Status, "server session must be gone")
}

func TestLoginWithBadPassword(t *testing.T) {
	server, backend, _ := newClient(t, nil)
	backend.AddUser("alice", "correct-horse", false)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/session/login",
		map[string]string{"username": "alice", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestRegisterSignsIn(t *testing.T) {
	server, _, _ := newClient(t, nil)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/session/register",
		map[string]string{"username": "bob", "password": "long-enough", "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var state model.AuthState
	require.NoError(t, json.Unmarshal(body.Data, &state))
	require.Equal(t, model.AuthAuthenticated, state.Status)
	assert.Equal(t, "bob", state.User.Username)
}

func TestProfileUpdateReachesSession(t *testing.T) {
	server, backend, _ := newClient(t, nil)
	backend.AddUser("alice", "correct-horse", false)
	login(t, server, "alice", "correct-horse")

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/v1/session/profile",
		map[string]string{"bio": "mostly noir"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/session", nil)
	var state model.AuthState
	require.NoError(t, json.Unmarshal(body.Data, &state))
	assert.Equal(t, "mostly noir", state.User.Profile.Bio)
}

func TestNavigateFollowsSession(t *testing.T) {
	server, backend, _ := newClient(t, nil)
	backend.AddUser("alice", "correct-horse", false)

	navigate := func(path string) guard.Navigation {
		resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/navigate?path="+path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var nav guard.Navigation
		require.NoError(t, json.Unmarshal(body.Data, &nav))
		return nav
	}

	assert.Equal(t, guard.Deny, navigate("/watchlist").Decision.Outcome)

	login(t, server, "alice", "correct-horse")
	assert.True(t, navigate("/watchlist").Decision.Allowed())

	admin := navigate("/admin")
	assert.Equal(t, guard.ReasonUnauthorized, admin.Decision.Reason)
	assert.Equal(t, "/", admin.Decision.Target)
}
