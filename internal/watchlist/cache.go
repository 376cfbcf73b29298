// Package watchlist keeps the signed-in user's watchlist in memory and applies
// add/remove optimistically, reconciling with the server when each call settles.
package watchlist

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"moodflix-client/internal/event"
	"moodflix-client/internal/logger"
	"moodflix-client/internal/metrics"
	"moodflix-client/internal/model"
	"moodflix-client/internal/validation"
	"moodflix-client/pkg/apierror"
)

// Remote is the server side of the watchlist.
type Remote interface {
	AddToWatchlist(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, movieID int) error
}

type slot struct {
	entry   model.WatchlistEntry
	pending *Mutation
}

type Cache struct {
	remote Remote
	bus    event.Bus
	log    *slog.Logger

	mu       sync.RWMutex
	epoch    uint64
	order    []int
	slots    map[int]*slot
	seqs     map[int]uint64
	nextSeq  uint64
	inFlight map[string]*Mutation
	// active is set by Seed and cleared by Reset; adds are refused while clear.
	active bool
}

func New(remote Remote, bus event.Bus) *Cache {
	if bus == nil {
		bus = event.Nop{}
	}

	return &Cache{
		remote:   remote,
		bus:      bus,
		log:      slog.Default().With(logger.ComponentKey, "watchlist"),
		slots:    map[int]*slot{},
		seqs:     map[int]uint64{},
		inFlight: map[string]*Mutation{},
	}
}

func (c *Cache) Contains(movieID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.slots[movieID]
	return ok
}

func (c *Cache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Items returns the watchlist in display order, pending additions included.
func (c *Cache) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		s := c.slots[id]
		out = append(out, Item{WatchlistEntry: s.entry, Pending: s.pending != nil})
	}
	return out
}

// InFlight lists mutations still waiting on the server.
func (c *Cache) InFlight() []Mutation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Mutation, 0, len(c.inFlight))
	for _, m := range c.inFlight {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Mutation) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

// Seed replaces the contents with a server snapshot. Duplicate movie ids keep
// their first occurrence. Mutations still in flight are superseded.
func (c *Cache) Seed(entries []model.WatchlistEntry) {
	c.mu.Lock()
	c.clearLocked()
	c.active = true
	for _, e := range entries {
		if _, dup := c.slots[e.MovieID]; dup || e.MovieID <= 0 {
			continue
		}
		c.slots[e.MovieID] = &slot{entry: e}
		c.order = append(c.order, e.MovieID)
	}
	epoch, size := c.epoch, len(c.order)
	c.mu.Unlock()

	metrics.WatchlistSize.Set(float64(size))
	c.bus.Publish(event.New(event.TypeWatchlistReset, epoch, map[string]int{"size": size}))
	c.log.Debug("watchlist seeded", "entries", size, "epoch", epoch)
}

// Reset empties the cache and refuses adds until the next Seed; completions
// of earlier mutations become no-ops.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.clearLocked()
	c.active = false
	epoch := c.epoch
	c.mu.Unlock()

	metrics.WatchlistSize.Set(0)
	c.bus.Publish(event.New(event.TypeWatchlistReset, epoch, map[string]int{"size": 0}))
	c.log.Debug("watchlist reset", "epoch", epoch)
}

func (c *Cache) clearLocked() {
	c.epoch++
	for _, m := range c.inFlight {
		m.State = StateSuperseded
	}
	c.inFlight = map[string]*Mutation{}
	c.order = nil
	c.slots = map[int]*slot{}
	c.seqs = map[int]uint64{}
}

// Add shows entry immediately and confirms it with the server. A movie already
// in the cache is rejected with ErrDuplicateEntry, and an add while no session
// is seeded with ErrNotAuthenticated, both without any network call.
func (c *Cache) Add(ctx context.Context, entry model.WatchlistEntry) (model.WatchlistEntry, error) {
	if err := validation.Struct(entry); err != nil {
		return model.WatchlistEntry{}, err
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return model.WatchlistEntry{}, model.ErrNotAuthenticated
	}
	if _, ok := c.slots[entry.MovieID]; ok {
		c.mu.Unlock()
		return model.WatchlistEntry{}, model.ErrDuplicateEntry
	}
	m := c.beginLocked(KindAdd, entry.MovieID)
	c.slots[entry.MovieID] = &slot{entry: entry, pending: m}
	c.order = append(c.order, entry.MovieID)
	size := len(c.order)
	c.mu.Unlock()

	metrics.WatchlistSize.Set(float64(size))
	c.bus.Publish(event.New(event.TypeWatchlistAdded, m.Epoch, entry))

	created, err := c.remote.AddToWatchlist(ctx, entry)

	c.mu.Lock()
	if !c.currentLocked(m) {
		c.settleLocked(m, StateSuperseded)
		c.mu.Unlock()
		c.log.Debug("stale add completion ignored", "movie_id", m.MovieID, "mutation_id", m.ID)
		return created, addError(err)
	}

	if err != nil {
		c.dropLocked(entry.MovieID)
		c.settleLocked(m, StateRolledBack)
		size = len(c.order)
		c.mu.Unlock()

		metrics.WatchlistSize.Set(float64(size))
		c.bus.Publish(event.New(event.TypeWatchlistRolledBack, m.Epoch, *m))
		c.log.Warn("watchlist add rolled back", "movie_id", entry.MovieID, "error", err)
		return model.WatchlistEntry{}, addError(err)
	}

	c.slots[entry.MovieID] = &slot{entry: created}
	c.settleLocked(m, StateConfirmed)
	c.mu.Unlock()

	c.bus.Publish(event.New(event.TypeWatchlistConfirmed, m.Epoch, created))
	c.log.Info("watchlist entry added", "movie_id", created.MovieID)
	return created, nil
}

// Remove hides the entry immediately and deletes it on the server. If the
// server refuses, the entry comes back at the end of the list.
func (c *Cache) Remove(ctx context.Context, movieID int) error {
	c.mu.Lock()
	s, ok := c.slots[movieID]
	if !ok {
		c.mu.Unlock()
		return model.ErrEntryNotFound
	}
	removed := s.entry
	m := c.beginLocked(KindRemove, movieID)
	c.dropLocked(movieID)
	size := len(c.order)
	c.mu.Unlock()

	metrics.WatchlistSize.Set(float64(size))
	c.bus.Publish(event.New(event.TypeWatchlistRemoved, m.Epoch, removed))

	err := c.remote.RemoveFromWatchlist(ctx, movieID)
	if apierror.ReasonOf(err) == apierror.ReasonNotFound {
		err = nil
	}

	c.mu.Lock()
	if !c.currentLocked(m) {
		c.settleLocked(m, StateSuperseded)
		c.mu.Unlock()
		c.log.Debug("stale remove completion ignored", "movie_id", movieID, "mutation_id", m.ID)
		return removeError(err)
	}

	if err != nil {
		c.slots[movieID] = &slot{entry: removed}
		c.order = append(c.order, movieID)
		c.settleLocked(m, StateRolledBack)
		size = len(c.order)
		c.mu.Unlock()

		metrics.WatchlistSize.Set(float64(size))
		c.bus.Publish(event.New(event.TypeWatchlistRolledBack, m.Epoch, *m))
		c.log.Warn("watchlist remove rolled back", "movie_id", movieID, "error", err)
		return removeError(err)
	}

	c.settleLocked(m, StateConfirmed)
	c.mu.Unlock()

	c.log.Info("watchlist entry removed", "movie_id", movieID)
	return nil
}

func (c *Cache) beginLocked(kind Kind, movieID int) *Mutation {
	c.nextSeq++
	m := &Mutation{
		ID:        uuid.NewString(),
		Kind:      kind,
		MovieID:   movieID,
		Epoch:     c.epoch,
		Seq:       c.nextSeq,
		State:     StatePending,
		StartedAt: time.Now().UTC(),
	}
	c.seqs[movieID] = m.Seq
	c.inFlight[m.ID] = m
	return m
}

func (c *Cache) currentLocked(m *Mutation) bool {
	return m.Epoch == c.epoch && c.seqs[m.MovieID] == m.Seq
}

// settleLocked records the outcome once; a mutation superseded by Reset stays superseded.
func (c *Cache) settleLocked(m *Mutation, state State) {
	if m.State == StatePending {
		m.State = state
	}
	delete(c.inFlight, m.ID)
	metrics.WatchlistMutations.WithLabelValues(string(m.Kind), string(m.State)).Inc()
}

func (c *Cache) dropLocked(movieID int) {
	delete(c.slots, movieID)
	if i := slices.Index(c.order, movieID); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

func addError(err error) error {
	switch {
	case err == nil:
		return nil
	case apierror.ReasonOf(err) == apierror.ReasonDuplicate:
		return fmt.Errorf("%w: %w", model.ErrDuplicateEntry, err)
	default:
		return fmt.Errorf("%w: %w", model.ErrMutationFailed, err)
	}
}

func removeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrMutationFailed, err)
}
