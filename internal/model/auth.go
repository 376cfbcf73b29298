package model

type AuthStatus string

const (
	AuthUnresolved      AuthStatus = "unresolved"
	AuthAuthenticated   AuthStatus = "authenticated"
	AuthUnauthenticated AuthStatus = "unauthenticated"
)

// AuthState is authenticated exactly when User is non-nil.
type AuthState struct {
	Status AuthStatus `json:"status"`
	User   *User      `json:"user"`
}

func UnresolvedState() AuthState {
	return AuthState{Status: AuthUnresolved}
}

func AnonymousState() AuthState {
	return AuthState{Status: AuthUnauthenticated}
}

func AuthenticatedState(user User) AuthState {
	return AuthState{Status: AuthAuthenticated, User: user.Clone()}
}

func (s AuthState) IsAuthenticated() bool {
	return s.Status == AuthAuthenticated && s.User != nil
}

func (s AuthState) IsResolved() bool {
	return s.Status != AuthUnresolved && s.Status != ""
}
