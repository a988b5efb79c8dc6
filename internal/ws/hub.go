package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/rs/zerolog/log"
)

// Event is one push message. ID is set on every action; Order is omitted on
// delete.
type Event struct {
	Source string       `json:"source"`
	Action string       `json:"action"`
	ID     int64        `json:"id"`
	Order  *order.Order `json:"pedido,omitempty"`
}

// OrderEvent builds a pedidos event for o.
func OrderEvent(action string, o order.Order) Event {
	ev := Event{Source: enum.FeedSourceOrders, Action: action, ID: o.ID}
	if action != enum.FeedActionDelete {
		ev.Order = &o
	}
	return ev
}

// sourceEvent routes an encoded event to the room of its source.
type sourceEvent struct {
	Source  string
	Message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Clients are grouped in rooms by event source.
type Hub struct {
	// Registered clients by source
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *sourceEvent

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sourceEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.source] == nil {
				h.rooms[client.source] = make(map[*Client]bool)
			}
			h.rooms[client.source][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[event.Source] {
				select {
				case client.send <- event.Message:
				default:
					// Client's send buffer is full, drop it
					log.Warn().Str("client", client.id.String()).Msg("ws: send buffer full, dropping client")
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers client. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters client; a no-op once the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.source]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.source)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Clients reports how many clients are subscribed to source.
func (h *Hub) Clients(source string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[source])
}

// Publish sends an event to every client subscribed to its source.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("ws: marshal event")
		return
	}
	h.deliver(ctx, ev.Source, msg)
}

func (h *Hub) deliver(ctx context.Context, source string, msg []byte) {
	select {
	case h.broadcast <- &sourceEvent{Source: source, Message: msg}:
	case <-ctx.Done():
	case <-h.done:
	}
}
