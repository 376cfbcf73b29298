package middleware

import (
	"context"
	"net/http"

	"moodflix-client/internal/guard"
	"moodflix-client/internal/metrics"
	"moodflix-client/internal/model"
)

type sessionState interface {
	State() model.AuthState
}

const userContextKey contextKey = "session_user"

// ViewGuard admits local API calls with the same chain the browser views use.
type ViewGuard struct {
	session sessionState
	policy  guard.Policy
}

func NewViewGuard(session sessionState, policy guard.Policy) *ViewGuard {
	return &ViewGuard{session: session, policy: policy}
}

func (g *ViewGuard) Require(caps ...guard.Capability) func(http.Handler) http.Handler {
	chain := g.policy.ChainFor(caps...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := g.session.State()
			decision := chain.Evaluate(state)
			metrics.GuardDecisions.WithLabelValues(string(decision.Outcome)).Inc()

			switch {
			case decision.Outcome == guard.Pending:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "SESSION_PENDING", "session is still being resolved", "")
				return
			case decision.Reason == guard.ReasonUnauthenticated:
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", decision.Target)
				return
			case decision.Outcome == guard.Deny:
				writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", decision.Target)
				return
			}

			ctx := r.Context()
			if state.User != nil {
				ctx = context.WithValue(ctx, userContextKey, state.User)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user admitted by ViewGuard.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok
}
