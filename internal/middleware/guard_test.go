package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodflix-client/internal/guard"
	"moodflix-client/internal/model"
)

type fixedSession struct {
	state model.AuthState
}

func (s fixedSession) State() model.AuthState { return s.state }

func TestViewGuard(t *testing.T) {
	policy := guard.Policy{LoginPath: "/login", HomePath: "/"}
	member := model.AuthenticatedState(model.User{ID: 1, Username: "alice"})
	staff := model.AuthenticatedState(model.User{ID: 2, Username: "root", IsStaff: true})

	tests := []struct {
		name       string
		state      model.AuthState
		caps       []guard.Capability
		wantStatus int
		wantBody   string
	}{
		{"pending session", model.UnresolvedState(), []guard.Capability{guard.CapAuthenticated}, http.StatusServiceUnavailable, "SESSION_PENDING"},
		{"pending admin", model.UnresolvedState(), []guard.Capability{guard.CapPrivileged}, http.StatusServiceUnavailable, "SESSION_PENDING"},
		{"anonymous", model.AnonymousState(), []guard.Capability{guard.CapAuthenticated}, http.StatusUnauthorized, `"details":"/login"`},
		{"anonymous admin", model.AnonymousState(), []guard.Capability{guard.CapPrivileged}, http.StatusUnauthorized, `"details":"/login"`},
		{"member admin", member, []guard.Capability{guard.CapPrivileged}, http.StatusForbidden, `"details":"/"`},
		{"member", member, []guard.Capability{guard.CapAuthenticated}, http.StatusOK, "alice"},
		{"staff admin", staff, []guard.Capability{guard.CapPrivileged}, http.StatusOK, "root"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vg := NewViewGuard(fixedSession{state: tc.state}, policy)
			handler := vg.Require(tc.caps...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := UserFromContext(r.Context())
				require.True(t, ok)
				_, _ = w.Write([]byte(user.Username))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/watchlist", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
			if tc.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
		})
	}
}
