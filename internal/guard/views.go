package guard

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"moodflix-client/internal/model"
)

// View is a page of the browser client and what it takes to see it.
type View struct {
	Name     string       `json:"name"`
	Pattern  string       `json:"pattern"`
	Requires []Capability `json:"requires,omitempty"`
}

var DefaultViews = []View{
	{Name: "home", Pattern: "/"},
	{Name: "login", Pattern: "/login"},
	{Name: "register", Pattern: "/register"},
	{Name: "recommendations", Pattern: "/recommendations", Requires: []Capability{CapAuthenticated}},
	{Name: "watchlist", Pattern: "/watchlist", Requires: []Capability{CapAuthenticated}},
	{Name: "movie", Pattern: "/movies/{id}", Requires: []Capability{CapAuthenticated}},
	{Name: "profile", Pattern: "/profile", Requires: []Capability{CapAuthenticated}},
	{Name: "admin", Pattern: "/admin", Requires: []Capability{CapPrivileged}},
}

type Navigation struct {
	Path     string   `json:"path"`
	View     string   `json:"view,omitempty"`
	Decision Decision `json:"decision"`
}

// Navigator maps view paths to their guard chains.
type Navigator struct {
	policy Policy
	mux    *chi.Mux
	list   []View
	views  map[string]View
	chains map[string]Chain
}

func NewNavigator(policy Policy, views []View) *Navigator {
	n := &Navigator{
		policy: policy,
		mux:    chi.NewMux(),
		list:   slices.Clone(views),
		views:  make(map[string]View, len(views)),
		chains: make(map[string]Chain, len(views)),
	}
	for _, v := range views {
		n.mux.Get(v.Pattern, http.NotFound)
		n.views[v.Pattern] = v
		n.chains[v.Pattern] = policy.ChainFor(v.Requires...)
	}
	return n
}

func (n *Navigator) Views() []View {
	return slices.Clone(n.list)
}

// View returns the view registered for path.
func (n *Navigator) View(path string) (View, bool) {
	rctx := chi.NewRouteContext()
	if !n.mux.Match(rctx, http.MethodGet, path) {
		return View{}, false
	}
	v, ok := n.views[rctx.RoutePattern()]
	return v, ok
}

// Navigate decides what happens when the user asks for path. Unknown paths go home.
func (n *Navigator) Navigate(state model.AuthState, path string) Navigation {
	v, ok := n.View(path)
	if !ok {
		return Navigation{Path: path, Decision: redirect(n.policy.HomePath, ReasonUnknownView)}
	}
	return Navigation{Path: path, View: v.Name, Decision: n.chains[v.Pattern].Evaluate(state)}
}
