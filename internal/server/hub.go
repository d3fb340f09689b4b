package server

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Broadcaster is the seam between the room loop and the transport. The
// hub implements it for production; tests substitute a recorder.
type Broadcaster interface {
	// BroadcastRoom fans a message out to every connection in a room,
	// optionally excluding nicknames.
	BroadcastRoom(roomID string, msg *Message, exclude ...string)

	// SendTo delivers a message to one player, dropping it on failure.
	// Hole cards travel only through this path.
	SendTo(roomID, nickname string, msg *Message)
}

// Hub is the connection broker: it tracks lobby subscribers and the
// (room, nickname) → connection mapping, and serializes sends through
// each connection's buffer. Sends are best-effort; a failed send drops
// the connection from the registries.
type Hub struct {
	mu     sync.RWMutex
	lobby  map[*Conn]struct{}
	rooms  map[string]map[string]*Conn
	logger *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		lobby:  make(map[*Conn]struct{}),
		rooms:  make(map[string]map[string]*Conn),
		logger: logger.WithPrefix("hub"),
	}
}

// ConnectLobby subscribes a connection to lobby updates.
func (h *Hub) ConnectLobby(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lobby[c] = struct{}{}
}

// DisconnectLobby removes a lobby subscriber.
func (h *Hub) DisconnectLobby(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lobby, c)
}

// ConnectRoom installs a player's connection, replacing any prior one
// under the same nickname (reconnects take over).
func (h *Hub) ConnectRoom(roomID, nickname string, c *Conn) {
	h.mu.Lock()
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[string]*Conn)
		h.rooms[roomID] = conns
	}
	prev := conns[nickname]
	conns[nickname] = c
	h.mu.Unlock()

	// Close the displaced connection outside the lock: its onClose
	// calls back into DisconnectRoom, whose registered-conn check keeps
	// the replacement installed.
	if prev != nil && prev != c {
		_ = prev.Close()
	}
}

// DisconnectRoom removes a player's connection if it is still the one
// registered; a replacement installed by a reconnect stays.
func (h *Hub) DisconnectRoom(roomID, nickname string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if conns[nickname] == c {
		delete(conns, nickname)
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
}

// RemoveRoom drops every connection entry for a room.
func (h *Hub) RemoveRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// BroadcastLobby fans a message out to every lobby subscriber.
func (h *Hub) BroadcastLobby(msg *Message) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.lobby))
	for c := range h.lobby {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			h.DisconnectLobby(c)
		}
	}
}

// BroadcastRoom implements Broadcaster.
func (h *Hub) BroadcastRoom(roomID string, msg *Message, exclude ...string) {
	h.mu.RLock()
	type target struct {
		nickname string
		conn     *Conn
	}
	var targets []target
	for nickname, c := range h.rooms[roomID] {
		if contains(exclude, nickname) {
			continue
		}
		targets = append(targets, target{nickname, c})
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.conn.Send(msg); err != nil {
			h.logger.Debug("dropping dead connection", "room_id", roomID, "nickname", t.nickname)
			h.DisconnectRoom(roomID, t.nickname, t.conn)
		}
	}
}

// SendTo implements Broadcaster.
func (h *Hub) SendTo(roomID, nickname string, msg *Message) {
	h.mu.RLock()
	c := h.rooms[roomID][nickname]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	if err := c.Send(msg); err != nil {
		h.DisconnectRoom(roomID, nickname, c)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
