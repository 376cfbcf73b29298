// Package session owns the authoritative authentication state of the client.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"moodflix-client/internal/event"
	"moodflix-client/internal/logger"
	"moodflix-client/internal/metrics"
	"moodflix-client/internal/model"
	"moodflix-client/internal/validation"
	"moodflix-client/pkg/apierror"
)

type Gateway interface {
	CurrentUser(ctx context.Context) (model.User, error)
	Watchlist(ctx context.Context) ([]model.WatchlistEntry, error)
	Login(ctx context.Context, creds model.Credentials) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error)
	ClearCookies()
}

// Watchlist is the part of the watchlist cache the store drives.
type Watchlist interface {
	Seed(entries []model.WatchlistEntry)
	Reset()
}

type Store struct {
	gateway   Gateway
	watchlist Watchlist
	bus       event.Bus
	log       *slog.Logger

	// resolveMu admits one resolution at a time.
	resolveMu sync.Mutex

	mu         sync.RWMutex
	state      model.AuthState
	resolving  bool
	generation uint64

	ready     chan struct{}
	readyOnce sync.Once
}

func New(gateway Gateway, watchlist Watchlist, bus event.Bus) *Store {
	if bus == nil {
		bus = event.Nop{}
	}

	return &Store{
		gateway:   gateway,
		watchlist: watchlist,
		bus:       bus,
		log:       slog.Default().With(logger.ComponentKey, "session"),
		state:     model.UnresolvedState(),
		ready:     make(chan struct{}),
	}
}

// State returns a copy the caller may keep.
func (s *Store) State() model.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.AuthState{Status: s.state.Status, User: s.state.User.Clone()}
}

// Resolving reports whether a resolution is in flight.
func (s *Store) Resolving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolving
}

// Epoch changes every time the session is ended locally.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Ready is closed once the first resolution (or a logout) has settled the state.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Resolve asks the server who owns the current session cookie and loads that
// user's watchlist alongside. Any failure leaves the store unauthenticated,
// except a caller cancelling once the state is already settled. A resolution
// overtaken by Logout is dropped without touching state.
func (s *Store) Resolve(ctx context.Context) model.AuthState {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	s.mu.Lock()
	gen := s.generation
	s.resolving = true
	s.mu.Unlock()

	var (
		user    model.User
		entries []model.WatchlistEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.gateway.CurrentUser(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.gateway.Watchlist(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	s.resolving = false
	if gen != s.generation {
		current := model.AuthState{Status: s.state.Status, User: s.state.User.Clone()}
		s.mu.Unlock()
		metrics.SessionResolutions.WithLabelValues("discarded").Inc()
		s.log.Debug("resolution discarded after logout", "generation", gen)
		return current
	}

	if err != nil && errors.Is(ctx.Err(), context.Canceled) && s.state.IsResolved() {
		current := model.AuthState{Status: s.state.Status, User: s.state.User.Clone()}
		s.mu.Unlock()
		metrics.SessionResolutions.WithLabelValues("canceled").Inc()
		s.log.Debug("resolution abandoned by caller, previous state kept", "status", current.Status)
		return current
	}

	if err != nil {
		s.state = model.AnonymousState()
		s.watchlist.Reset()
		if apierror.ReasonOf(err) == apierror.ReasonAuth {
			s.log.Debug("no active session")
		} else {
			s.log.Warn("session resolution failed", "error", err)
		}
	} else {
		s.state = model.AuthenticatedState(user)
		s.watchlist.Seed(entries)
	}
	state := model.AuthState{Status: s.state.Status, User: s.state.User.Clone()}
	s.mu.Unlock()

	s.markReady()
	metrics.SessionResolutions.WithLabelValues(string(state.Status)).Inc()
	s.bus.Publish(event.New(event.TypeSessionResolved, gen, state))
	if state.IsAuthenticated() {
		s.log.Info("session resolved", "user_id", state.User.ID, "watchlist", len(entries))
	}
	return state
}

// Login checks the credentials with the server and then resolves the session
// from scratch. A rejected login leaves the current state as it was.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (model.AuthState, error) {
	if err := validation.Struct(creds); err != nil {
		return s.State(), err
	}

	if err := s.gateway.Login(ctx, creds); err != nil {
		return s.State(), loginError(err)
	}

	state := s.Resolve(ctx)
	if !state.IsAuthenticated() {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		return state, fmt.Errorf("%w: session cookie was not accepted", model.ErrNotAuthenticated)
	}

	s.log.Info("user logged in", "user_id", state.User.ID)
	return state, nil
}

// Register creates the account and signs in with the same credentials.
func (s *Store) Register(ctx context.Context, reg model.Registration) (model.AuthState, error) {
	if err := validation.Struct(reg); err != nil {
		return s.State(), err
	}

	if _, err := s.gateway.Register(ctx, reg); err != nil {
		return s.State(), err
	}

	return s.Login(ctx, model.Credentials{Username: reg.Username, Password: reg.Password})
}

// Logout always ends the local session, even when the server call fails; the
// error is returned for reporting only.
func (s *Store) Logout(ctx context.Context) error {
	err := s.gateway.Logout(ctx)
	s.gateway.ClearCookies()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = model.AnonymousState()
	s.watchlist.Reset()
	s.mu.Unlock()

	s.markReady()
	s.bus.Publish(event.New(event.TypeSessionCleared, gen, nil))

	if err != nil {
		s.log.Warn("server logout failed, local session cleared anyway", "error", err)
		return err
	}
	s.log.Info("user logged out")
	return nil
}

// ApplyProfileUpdate swaps in a server-confirmed user record. It is ignored
// when nobody is signed in or the record belongs to someone else.
func (s *Store) ApplyProfileUpdate(user model.User) bool {
	s.mu.Lock()
	if !s.state.IsAuthenticated() || s.state.User.ID != user.ID {
		s.mu.Unlock()
		return false
	}
	s.state = model.AuthenticatedState(user)
	gen := s.generation
	s.mu.Unlock()

	s.bus.Publish(event.New(event.TypeSessionProfileUpdated, gen, user.Clone()))
	return true
}

// UpdateProfile sends the change and applies the server's answer; there is no
// optimistic variant.
func (s *Store) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	s.mu.RLock()
	authenticated := s.state.IsAuthenticated()
	gen := s.generation
	s.mu.RUnlock()
	if !authenticated {
		return model.User{}, model.ErrNotAuthenticated
	}

	if update.IsEmpty() {
		return model.User{}, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}
	if err := validation.Struct(update); err != nil {
		return model.User{}, err
	}
	if update.Picture != nil {
		if err := validation.Picture(update.Picture); err != nil {
			return model.User{}, err
		}
	}

	user, err := s.gateway.UpdateProfile(ctx, update)
	if err != nil {
		return model.User{}, err
	}

	if s.Epoch() != gen || !s.ApplyProfileUpdate(user) {
		return model.User{}, model.ErrSessionEnded
	}
	return user, nil
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func loginError(err error) error {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.HTTPStatus {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", model.ErrInvalidCredentials, err)
	}
	return err
}
