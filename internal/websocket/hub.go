package websocket

import (
	"context"
	"sync"

	"hangoutz/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub is the connection registry of one instance. It maps connection ids to
// clients and room names to their members. Hub implements events.Broadcaster
// for single instance deployments.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	logger  *Logger
}

func NewHub(logger *Logger) *Hub {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  logger,
	}
}

// register adds the client and joins it to its personal room.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	h.joinLocked(c, events.UserRoom(c.userID))
}

// unregister removes the client from every room and closes its send
// channel. It is safe to call more than once.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return false
	}
	delete(h.clients, c.id)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	return true
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	h.joinLocked(c, room)
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, room)
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.id] = c
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) Emit(ctx context.Context, env events.Envelope) error {
	h.Deliver(env)
	return nil
}

// Deliver writes the envelope to the local members of its room without
// blocking. A member whose buffer is full misses the frame.
func (h *Hub) Deliver(env events.Envelope) {
	frame, err := env.Frame()
	if err != nil {
		h.logger.Error("frame encode failed", uuid.Nil, "", err, zap.String("room", env.Room))
		return
	}

	// send under the read lock so unregister cannot close a channel mid-send
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.rooms[env.Room]
	if env.Room == events.BroadcastRoom {
		targets = h.clients
	}
	for id, c := range targets {
		if id == env.ExceptClient {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("client send buffer full", c.userID, c.id, zap.String("frame", env.Event))
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// IsOnline reports whether the user has a connection on this instance.
func (h *Hub) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	return h.RoomSize(events.UserRoom(userID)) > 0, nil
}

// Shutdown closes every connection. Read pumps then run their normal
// disconnect path.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
}
