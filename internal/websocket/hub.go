// Package websocket pushes session and watchlist events to connected views.
package websocket

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"

	"moodflix-client/internal/event"
	"moodflix-client/internal/logger"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	bus        event.Bus
	log        *slog.Logger
	count      chan chan int
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bus:        bus,
		log:        slog.Default().With(logger.ComponentKey, "websocket"),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run fans bus events out to every client until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("client connected", "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("client disconnected", "clients", len(h.clients))
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				h.log.Error("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.log.Warn("dropping slow websocket client")
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Clients reports how many views are connected.
func (h *Hub) Clients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	case <-ctx.Done():
		return 0
	}
}
