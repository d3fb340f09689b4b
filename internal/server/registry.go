package server

import (
	"sort"
	"sync"

	"github.com/cardhall/holdem/internal/game"
)

// Registry is the process-wide index of live rooms. Reads are
// concurrent; create and remove hold the write lock briefly. Room state
// itself is never touched here, only through each room's own loop.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Add registers a room.
func (r *Registry) Add(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID()] = room
}

// Get returns the room with the given id, or nil.
func (r *Registry) Get(id string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

// Remove deletes a room from the index.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

// ListWaiting returns snapshots of every room still accepting players.
func (r *Registry) ListWaiting() []game.Snapshot {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	waiting := []game.Snapshot{}
	for _, room := range rooms {
		if snap, ok := room.Snapshot(); ok && snap.Status == game.StatusWaiting {
			waiting = append(waiting, snap)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].CreatedAt < waiting[j].CreatedAt
	})
	return waiting
}
