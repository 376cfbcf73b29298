// Package guard decides whether a view may be shown for the current
// authentication state.
package guard

import (
	"slices"

	"moodflix-client/internal/model"
)

type Outcome string

const (
	Pending Outcome = "pending"
	Allow   Outcome = "allow"
	Deny    Outcome = "deny"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonUnauthorized    Reason = "unauthorized"
	ReasonUnknownView     Reason = "unknown_view"
)

// Decision is the single verdict for a navigation. Target is set only on Deny.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Target  string  `json:"target,omitempty"`
	Reason  Reason  `json:"reason,omitempty"`
}

func (d Decision) Allowed() bool { return d.Outcome == Allow }

func allowed() Decision { return Decision{Outcome: Allow} }

func pending() Decision { return Decision{Outcome: Pending} }

func redirect(target string, reason Reason) Decision {
	return Decision{Outcome: Deny, Target: target, Reason: reason}
}

// Guard is one admission predicate.
type Guard func(state model.AuthState) Decision

// Authenticated admits a signed-in user and sends everyone else to loginPath.
func Authenticated(loginPath string) Guard {
	return func(state model.AuthState) Decision {
		switch {
		case !state.IsResolved():
			return pending()
		case !state.IsAuthenticated():
			return redirect(loginPath, ReasonUnauthenticated)
		default:
			return allowed()
		}
	}
}

// Privileged admits staff users and sends everyone else to homePath. It must
// run after Authenticated; on its own it still waits out an unresolved state.
func Privileged(homePath string) Guard {
	return func(state model.AuthState) Decision {
		switch {
		case !state.IsResolved():
			return pending()
		case !state.User.IsPrivileged():
			return redirect(homePath, ReasonUnauthorized)
		default:
			return allowed()
		}
	}
}

// Chain evaluates guards outer to inner; the first verdict other than Allow wins.
type Chain []Guard

func (c Chain) Evaluate(state model.AuthState) Decision {
	for _, g := range c {
		if d := g(state); d.Outcome != Allow {
			return d
		}
	}
	return allowed()
}

type Capability string

const (
	CapAuthenticated Capability = "authenticated"
	CapPrivileged    Capability = "privileged"
)

type Policy struct {
	LoginPath string
	HomePath  string
}

// ChainFor builds the chain for a set of required capabilities. The
// authentication guard always comes first, and Privileged implies it.
func (p Policy) ChainFor(caps ...Capability) Chain {
	needsAuth := slices.Contains(caps, CapAuthenticated) || slices.Contains(caps, CapPrivileged)

	var chain Chain
	if needsAuth {
		chain = append(chain, Authenticated(p.LoginPath))
	}
	if slices.Contains(caps, CapPrivileged) {
		chain = append(chain, Privileged(p.HomePath))
	}
	return chain
}
