package watchlist

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodflix-client/internal/event"
	"moodflix-client/internal/model"
	"moodflix-client/pkg/apierror"
)

type call struct {
	entry   model.WatchlistEntry
	movieID int
	release chan result
}

type result struct {
	entry model.WatchlistEntry
	err   error
}

// gatedRemote parks every call until the test releases it.
type gatedRemote struct {
	mu      sync.Mutex
	adds    []*call
	removes []*call
	arrived chan *call
}

func newGatedRemote() *gatedRemote {
	return &gatedRemote{arrived: make(chan *call, 16)}
}

func (r *gatedRemote) AddToWatchlist(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	c := &call{entry: entry, movieID: entry.MovieID, release: make(chan result, 1)}
	r.mu.Lock()
	r.adds = append(r.adds, c)
	r.mu.Unlock()
	r.arrived <- c

	select {
	case res := <-c.release:
		return res.entry, res.err
	case <-ctx.Done():
		return model.WatchlistEntry{}, ctx.Err()
	}
}

func (r *gatedRemote) RemoveFromWatchlist(ctx context.Context, movieID int) error {
	c := &call{movieID: movieID, release: make(chan result, 1)}
	r.mu.Lock()
	r.removes = append(r.removes, c)
	r.mu.Unlock()
	r.arrived <- c

	select {
	case res := <-c.release:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *gatedRemote) calls() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.adds), len(r.removes)
}

func (r *gatedRemote) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-r.arrived:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("remote call never arrived")
		return nil
	}
}

// instantRemote answers immediately.
type instantRemote struct {
	addErr    error
	removeErr error
	nextID    int
}

func (r *instantRemote) AddToWatchlist(_ context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	if r.addErr != nil {
		return model.WatchlistEntry{}, r.addErr
	}
	r.nextID++
	entry.ID = r.nextID
	return entry, nil
}

func (r *instantRemote) RemoveFromWatchlist(context.Context, int) error {
	return r.removeErr
}

func matrix() model.WatchlistEntry {
	return model.WatchlistEntry{MovieID: 603, Title: "The Matrix", PosterPath: "/matrix.jpg"}
}

// newSignedIn returns a cache seeded with an empty watchlist, as after a
// successful resolution.
func newSignedIn(remote Remote, bus event.Bus) *Cache {
	c := New(remote, bus)
	c.Seed(nil)
	return c
}

func entries(c *Cache) []model.WatchlistEntry {
	items := c.Items()
	out := make([]model.WatchlistEntry, 0, len(items))
	for _, it := range items {
		out = append(out, it.WatchlistEntry)
	}
	return out
}

func movieIDs(entries []model.WatchlistEntry) []int {
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MovieID)
	}
	return ids
}

func TestCache_AddVisibleBeforeConfirmation(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := cache.Add(context.Background(), matrix())
		done <- err
	}()

	c := remote.next(t)
	assert.True(t, cache.Contains(603))
	items := cache.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Pending)
	require.Len(t, cache.InFlight(), 1)
	assert.Equal(t, StatePending, cache.InFlight()[0].State)

	confirmed := c.entry
	confirmed.ID = 77
	c.release <- result{entry: confirmed}
	require.NoError(t, <-done)

	assert.True(t, cache.Contains(603))
	assert.Equal(t, 77, entries(cache)[0].ID)
	assert.False(t, cache.Items()[0].Pending)
	assert.Empty(t, cache.InFlight())
}

func TestCache_AddValidation(t *testing.T) {
	remote := &instantRemote{}
	cache := newSignedIn(remote, nil)

	_, err := cache.Add(context.Background(), model.WatchlistEntry{MovieID: 0, Title: "Nothing"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, cache.Items())
}

func TestCache_AddDuplicateRejectedLocally(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)
	cache.Seed([]model.WatchlistEntry{matrix()})

	_, err := cache.Add(context.Background(), matrix())
	assert.ErrorIs(t, err, model.ErrDuplicateEntry)

	adds, _ := remote.calls()
	assert.Zero(t, adds)
	assert.Equal(t, 1, len(cache.Items()))
}

func TestCache_AddRolledBackOnServerDuplicate(t *testing.T) {
	remote := &instantRemote{
		addErr: apierror.New("BAD_REQUEST", "The fields user, movie_id must make a unique set.", "non_field_errors", http.StatusBadRequest).
			WithReason(apierror.ReasonDuplicate),
	}
	bus := event.NewBus()
	cache := newSignedIn(remote, bus)
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	_, err := cache.Add(context.Background(), matrix())

	assert.ErrorIs(t, err, model.ErrDuplicateEntry)
	assert.False(t, cache.Contains(603))
	assert.Empty(t, cache.Items())

	assert.Equal(t, event.TypeWatchlistAdded, (<-events).Type)
	rolledBack := <-events
	assert.Equal(t, event.TypeWatchlistRolledBack, rolledBack.Type)
	assert.Equal(t, StateRolledBack, rolledBack.Payload.(Mutation).State)
}

func TestCache_AddRolledBackOnTransportFailure(t *testing.T) {
	cause := apierror.New("UPSTREAM_UNAVAILABLE", "recommendation service unreachable", "", http.StatusBadGateway).
		WithReason(apierror.ReasonTransport)
	cache := newSignedIn(&instantRemote{addErr: cause}, nil)
	cache.Seed([]model.WatchlistEntry{{MovieID: 1, Title: "One"}})

	_, err := cache.Add(context.Background(), matrix())

	assert.ErrorIs(t, err, model.ErrMutationFailed)
	var apiErr *apierror.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []int{1}, movieIDs(entries(cache)))
}

func TestCache_Remove(t *testing.T) {
	t.Run("absent key makes no call", func(t *testing.T) {
		remote := newGatedRemote()
		cache := newSignedIn(remote, nil)

		assert.ErrorIs(t, cache.Remove(context.Background(), 603), model.ErrEntryNotFound)
		_, removes := remote.calls()
		assert.Zero(t, removes)
	})

	t.Run("hidden before confirmation", func(t *testing.T) {
		remote := newGatedRemote()
		cache := newSignedIn(remote, nil)
		cache.Seed([]model.WatchlistEntry{matrix()})

		done := make(chan error, 1)
		go func() { done <- cache.Remove(context.Background(), 603) }()

		c := remote.next(t)
		assert.False(t, cache.Contains(603))
		c.release <- result{}
		require.NoError(t, <-done)
		assert.False(t, cache.Contains(603))
	})

	t.Run("server not found counts as removed", func(t *testing.T) {
		cache := newSignedIn(&instantRemote{removeErr: apierror.New("NOT_FOUND", "Not found.", "", http.StatusNotFound)}, nil)
		cache.Seed([]model.WatchlistEntry{matrix()})

		require.NoError(t, cache.Remove(context.Background(), 603))
		assert.False(t, cache.Contains(603))
	})

	t.Run("failure restores the entry at the end", func(t *testing.T) {
		cache := newSignedIn(&instantRemote{removeErr: errors.New("connection reset")}, nil)
		cache.Seed([]model.WatchlistEntry{
			matrix(),
			{MovieID: 27205, Title: "Inception"},
			{MovieID: 157336, Title: "Interstellar"},
		})

		err := cache.Remove(context.Background(), 603)
		assert.ErrorIs(t, err, model.ErrMutationFailed)
		assert.True(t, cache.Contains(603))
		assert.Equal(t, []int{27205, 157336, 603}, movieIDs(entries(cache)))
	})
}

func TestCache_AddThenRemoveCompletingOutOfOrder(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)
	ctx := context.Background()

	addDone := make(chan error, 1)
	go func() {
		_, err := cache.Add(ctx, matrix())
		addDone <- err
	}()
	addCall := remote.next(t)

	removeDone := make(chan error, 1)
	go func() { removeDone <- cache.Remove(ctx, 603) }()
	removeCall := remote.next(t)
	assert.False(t, cache.Contains(603))

	// The delete lands first and finds nothing on the server yet.
	removeCall.release <- result{err: apierror.New("NOT_FOUND", "Not found.", "", http.StatusNotFound)}
	require.NoError(t, <-removeDone)

	confirmed := addCall.entry
	confirmed.ID = 9
	addCall.release <- result{entry: confirmed}
	require.NoError(t, <-addDone)

	assert.False(t, cache.Contains(603), "the later remove is the last intent")
	assert.Empty(t, entries(cache))
	assert.Empty(t, cache.InFlight())
}

func TestCache_RemoveThenAddCompletingOutOfOrder(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)
	cache.Seed([]model.WatchlistEntry{matrix()})
	ctx := context.Background()

	removeDone := make(chan error, 1)
	go func() { removeDone <- cache.Remove(ctx, 603) }()
	removeCall := remote.next(t)

	addDone := make(chan error, 1)
	go func() {
		_, err := cache.Add(ctx, matrix())
		addDone <- err
	}()
	addCall := remote.next(t)

	confirmed := addCall.entry
	confirmed.ID = 12
	addCall.release <- result{entry: confirmed}
	require.NoError(t, <-addDone)

	// A late failure of the earlier remove must not re-insert a second copy.
	removeCall.release <- result{err: errors.New("timeout")}
	assert.ErrorIs(t, <-removeDone, model.ErrMutationFailed)

	assert.Equal(t, []int{603}, movieIDs(entries(cache)))
	assert.Equal(t, 12, entries(cache)[0].ID)
}

func TestCache_ResetSupersedesInFlight(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := cache.Add(context.Background(), matrix())
		done <- err
	}()
	c := remote.next(t)
	epoch := cache.Epoch()

	cache.Reset()
	assert.Greater(t, cache.Epoch(), epoch)
	assert.Empty(t, cache.InFlight())

	c.release <- result{entry: c.entry}
	require.NoError(t, <-done)

	assert.False(t, cache.Contains(603))
	assert.Empty(t, cache.Items())
}

func TestCache_SeedAfterResetIgnoresStaleRollback(t *testing.T) {
	remote := newGatedRemote()
	cache := newSignedIn(remote, nil)
	cache.Seed([]model.WatchlistEntry{matrix()})

	done := make(chan error, 1)
	go func() { done <- cache.Remove(context.Background(), 603) }()
	c := remote.next(t)

	cache.Seed([]model.WatchlistEntry{{MovieID: 550, Title: "Fight Club"}})
	c.release <- result{err: errors.New("boom")}
	assert.Error(t, <-done)

	assert.Equal(t, []int{550}, movieIDs(entries(cache)))
}

func TestCache_AddRefusedWithoutSession(t *testing.T) {
	remote := newGatedRemote()

	t.Run("before the first seed", func(t *testing.T) {
		cache := New(remote, nil)
		_, err := cache.Add(context.Background(), matrix())
		assert.ErrorIs(t, err, model.ErrNotAuthenticated)
		assert.False(t, cache.Contains(603))
	})

	t.Run("after a reset", func(t *testing.T) {
		cache := newSignedIn(remote, nil)
		cache.Reset()

		_, err := cache.Add(context.Background(), matrix())
		assert.ErrorIs(t, err, model.ErrNotAuthenticated)
		assert.Empty(t, cache.Items())

		cache.Seed(nil)
		go func() { _, _ = cache.Add(context.Background(), matrix()) }()
		c := remote.next(t)
		assert.True(t, cache.Contains(603))
		c.release <- result{entry: c.entry}
	})

	adds, _ := remote.calls()
	assert.Equal(t, 1, adds)
}

func TestCache_SeedDedupes(t *testing.T) {
	cache := newSignedIn(&instantRemote{}, nil)
	cache.Seed([]model.WatchlistEntry{
		{MovieID: 1, Title: "First"},
		{MovieID: 2, Title: "Second"},
		{MovieID: 1, Title: "First again"},
	})

	got := entries(cache)
	assert.Equal(t, []int{1, 2}, movieIDs(got))
	assert.Equal(t, "First", got[0].Title)
}

func TestCache_ConcurrentAdds(t *testing.T) {
	cache := newSignedIn(&lockedRemote{}, nil)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = cache.Add(context.Background(), model.WatchlistEntry{MovieID: id, Title: "Movie"})
		}(i)
	}
	wg.Wait()

	assert.Len(t, cache.Items(), 50)
	for i := 1; i <= 50; i++ {
		assert.True(t, cache.Contains(i))
	}
}

type lockedRemote struct {
	mu sync.Mutex
	instantRemote
}

func (r *lockedRemote) AddToWatchlist(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instantRemote.AddToWatchlist(ctx, entry)
}
