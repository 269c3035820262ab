package ws

import (
	"sync"

	"holdem-service/internal/game"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
)

// Hub tracks the active connection per identity and the set of identities
// subscribed to each table channel. It is the game registry's Sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// register installs the client as the identity's connection. A lingering
// connection for the same identity is closed and replaced.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	stale := h.clients[c.identity.ID]
	h.clients[c.identity.ID] = c
	h.mu.Unlock()

	if stale != nil && stale != c {
		logger.Log.Info("replacing stale connection",
			zap.String("playerID", c.identity.ID),
		)
		stale.close()
	}
}

// unregister removes the client and its channel subscriptions. It reports
// false when a newer connection has already taken over the identity, in
// which case nothing is removed.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.identity.ID] != c {
		return false
	}
	delete(h.clients, c.identity.ID)
	for tableID, members := range h.rooms {
		delete(members, c.identity.ID)
		if len(members) == 0 {
			delete(h.rooms, tableID)
		}
	}
	return true
}

func (h *Hub) joinRoom(tableID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[tableID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[tableID] = members
	}
	members[playerID] = struct{}{}
}

func (h *Hub) leaveRoom(tableID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[tableID]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.rooms, tableID)
		}
	}
}

// ToPlayer implements game.Sender.
func (h *Hub) ToPlayer(playerID string, msg game.Message) {
	h.mu.RLock()
	c := h.clients[playerID]
	h.mu.RUnlock()

	if c != nil {
		c.enqueue(msg)
	}
}

// ToTable implements game.Sender.
func (h *Hub) ToTable(tableID string, msg game.Message) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[tableID]))
	for id := range h.rooms[tableID] {
		if c := h.clients[id]; c != nil {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(msg)
	}
}
