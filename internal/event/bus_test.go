package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryBus(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	bus.Publish(New(TypeWatchlistAdded, 3, map[string]int{"movie_id": 42}))

	got := <-events
	require.Equal(t, TypeWatchlistAdded, got.Type)
	require.Equal(t, uint64(3), got.Epoch)
	require.NotEmpty(t, got.ID)

	unsubscribe()
	unsubscribe()
	require.Equal(t, 0, bus.SubscriberCount())

	_, open := <-events
	require.False(t, open)

	bus.Publish(New(TypeSessionCleared, 4, nil))
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < bus.buffer+10; i++ {
		bus.Publish(New(TypeWatchlistRemoved, 1, nil))
	}
}
