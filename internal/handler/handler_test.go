package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodflix-client/internal/model"
	"moodflix-client/internal/watchlist"
	"moodflix-client/pkg/apierror"
)

type staticSession struct {
	epoch     uint64
	resolving bool
}

func (s staticSession) Epoch() uint64   { return s.epoch }
func (s staticSession) Resolving() bool { return s.resolving }

type fakeWatchlist struct {
	items   []watchlist.Item
	pending []watchlist.Mutation
	addErr  error
	removed []int
	ctxErr  error
}

func (f *fakeWatchlist) Items() []watchlist.Item { return f.items }

func (f *fakeWatchlist) InFlight() []watchlist.Mutation { return f.pending }

func (f *fakeWatchlist) Contains(movieID int) bool {
	for _, it := range f.items {
		if it.MovieID == movieID {
			return true
		}
	}
	return false
}

func (f *fakeWatchlist) Add(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	f.ctxErr = ctx.Err()
	if f.addErr != nil {
		return model.WatchlistEntry{}, f.addErr
	}
	entry.ID = 7
	return entry, nil
}

func (f *fakeWatchlist) Remove(_ context.Context, movieID int) error {
	f.removed = append(f.removed, movieID)
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (model.APIResponse, json.RawMessage) {
	t.Helper()
	var raw struct {
		model.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	return raw.APIResponse, raw.Data
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", fmt.Errorf("%w: server said so", model.ErrDuplicateEntry), http.StatusConflict, "ALREADY_EXISTS"},
		{"absent entry", model.ErrEntryNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"session ended", model.ErrSessionEnded, http.StatusConflict, "SESSION_ENDED"},
		{"bad credentials", fmt.Errorf("%w: nope", model.ErrInvalidCredentials), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rollback with upstream status",
			fmt.Errorf("%w: %w", model.ErrMutationFailed, apierror.New("UPSTREAM", "down", "", http.StatusBadGateway)),
			http.StatusBadGateway, "MUTATION_FAILED"},
		{"rollback without upstream", fmt.Errorf("%w: timeout", model.ErrMutationFailed), http.StatusBadGateway, "MUTATION_FAILED"},
		{"api error passes through", apierror.New("FORBIDDEN", "no", "", http.StatusForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"metadata off", model.ErrMetadataNotConfigured, http.StatusNotImplemented, "NOT_CONFIGURED"},
		{"metadata down", model.ErrMetadataUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			resp, _ := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func newWatchlistRouter(cache *fakeWatchlist) http.Handler {
	h := NewWatchlistHandler(cache, staticSession{epoch: 3})
	r := chi.NewRouter()
	r.Get("/watchlist", h.List)
	r.Post("/watchlist", h.Add)
	r.Get("/watchlist/mutations", h.Mutations)
	r.Get("/watchlist/{movie_id}", h.Contains)
	r.Delete("/watchlist/{movie_id}", h.Remove)
	return r
}

func TestWatchlistHandler(t *testing.T) {
	t.Parallel()

	t.Run("list carries pending flags and epoch", func(t *testing.T) {
		cache := &fakeWatchlist{items: []watchlist.Item{
			{WatchlistEntry: model.WatchlistEntry{MovieID: 603, Title: "The Matrix"}, Pending: true},
		}}
		rec := httptest.NewRecorder()
		newWatchlistRouter(cache).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/watchlist", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		resp, data := decodeEnvelope(t, rec)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, uint64(3), resp.Meta.SessionEpoch)
		assert.Equal(t, 1, resp.Meta.Total)
		assert.Contains(t, string(data), `"pending":true`)
	})

	t.Run("add detaches from the request context", func(t *testing.T) {
		cache := &fakeWatchlist{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"movie_id":603,"title":"The Matrix"}`)).WithContext(ctx)
		rec := httptest.NewRecorder()
		newWatchlistRouter(cache).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NoError(t, cache.ctxErr)
	})

	t.Run("add rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"movie_id":1,"title":"x","rating":5}`))
		rec := httptest.NewRecorder()
		newWatchlistRouter(&fakeWatchlist{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("add duplicate", func(t *testing.T) {
		cache := &fakeWatchlist{addErr: model.ErrDuplicateEntry}
		req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"movie_id":1,"title":"x"}`))
		rec := httptest.NewRecorder()
		newWatchlistRouter(cache).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("mutations in flight", func(t *testing.T) {
		cache := &fakeWatchlist{pending: []watchlist.Mutation{
			{ID: "m-1", Kind: watchlist.KindAdd, MovieID: 603, Seq: 1, State: watchlist.StatePending},
		}}
		rec := httptest.NewRecorder()
		newWatchlistRouter(cache).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/watchlist/mutations", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		resp, data := decodeEnvelope(t, rec)
		assert.Equal(t, 1, resp.Meta.Total)
		assert.Contains(t, string(data), `"kind":"add"`)
		assert.Contains(t, string(data), `"movie_id":603`)
	})

	t.Run("contains and remove", func(t *testing.T) {
		cache := &fakeWatchlist{items: []watchlist.Item{{WatchlistEntry: model.WatchlistEntry{MovieID: 5, Title: "x"}}}}
		router := newWatchlistRouter(cache)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/watchlist/5", nil))
		assert.Contains(t, rec.Body.String(), `"in_watchlist":true`)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/watchlist/5", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int{5}, cache.removed)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/watchlist/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type recordingSession struct {
	staticSession
	state  model.AuthState
	ctxErr []error
}

func (s *recordingSession) State() model.AuthState { return s.state }

func (s *recordingSession) Resolve(ctx context.Context) model.AuthState {
	s.ctxErr = append(s.ctxErr, ctx.Err())
	return s.state
}

func (s *recordingSession) Login(ctx context.Context, _ model.Credentials) (model.AuthState, error) {
	s.ctxErr = append(s.ctxErr, ctx.Err())
	return s.state, nil
}

func (s *recordingSession) Register(ctx context.Context, _ model.Registration) (model.AuthState, error) {
	s.ctxErr = append(s.ctxErr, ctx.Err())
	return s.state, nil
}

func (s *recordingSession) Logout(context.Context) error { return nil }

func (s *recordingSession) UpdateProfile(context.Context, model.ProfileUpdate) (model.User, error) {
	return model.User{}, nil
}

func TestSessionHandler_DetachesFromAbandonedRequests(t *testing.T) {
	t.Parallel()

	session := &recordingSession{state: model.AuthenticatedState(model.User{ID: 1, Username: "alice"})}
	h := NewSessionHandler(session)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := []struct {
		handler http.HandlerFunc
		body    string
		status  int
	}{
		{h.Resolve, "", http.StatusOK},
		{h.Login, `{"username":"alice","password":"secret"}`, http.StatusOK},
		{h.Register, `{"username":"alice","password":"long-enough"}`, http.StatusCreated},
	}
	for _, call := range calls {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(call.body)).WithContext(ctx)
		rec := httptest.NewRecorder()
		call.handler(rec, req)
		assert.Equal(t, call.status, rec.Code)
	}

	require.Len(t, session.ctxErr, 3)
	for _, err := range session.ctxErr {
		assert.NoError(t, err)
	}
}
