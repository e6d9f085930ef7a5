package ws

import (
	"sync"
)

// Hub tracks which live connections are subscribed to which session room.
// A connection may sit in several rooms at once; the reverse index lets
// Detach pull it out of all of them on disconnect.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{} // sessionID -> set of connections
	joined map[Conn]map[string]struct{} // connection -> set of sessionIDs
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]struct{}),
		joined: make(map[Conn]map[string]struct{}),
	}
}

func (h *Hub) Join(sessionID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[sessionID]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[sessionID] = rs
	}
	rs[c] = struct{}{}

	js, ok := h.joined[c]
	if !ok {
		js = make(map[string]struct{})
		h.joined[c] = js
	}
	js[sessionID] = struct{}{}
}

// IsMember is the cheap local membership check used by the message router;
// it never touches the store.
func (h *Hub) IsMember(sessionID string, c Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.joined[c][sessionID]
	return ok
}

// Detach removes the connection from every room it joined. There is no
// per-room leave; disconnect is the only exit.
func (h *Hub) Detach(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID := range h.joined[c] {
		if rs, ok := h.rooms[sessionID]; ok {
			delete(rs, c)
			if len(rs) == 0 {
				delete(h.rooms, sessionID)
			}
		}
	}
	delete(h.joined, c)
}

func (h *Hub) Broadcast(sessionID string, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[sessionID]; ok {
		for c := range rs {
			_ = c.Emit(event, payload) // best-effort
		}
	}
}
