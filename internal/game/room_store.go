// internal/game/room_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore manages all live rooms in memory, keyed by room id.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomStore returns an empty in-memory registry.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for id, creating it on first join. init, if
// non-nil, runs on a newly created room before it becomes visible to anyone
// else, so broadcast wiring is never observed half-done. The second return
// reports whether the room already existed.
func (s *RoomStore) GetOrCreate(id string, init func(*Room)) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r, true
	}
	r := NewRoom(id)
	if init != nil {
		init(r)
	}
	s.rooms[id] = r
	return r, false
}

// Get retrieves a room if it exists.
func (s *RoomStore) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete tears the room down. Used on leave and disconnect; there is no
// partial leave, one member leaving destroys the room for everyone.
func (s *RoomStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// WithPlayer returns every room the player is currently seated in. A client
// can hold seats in several rooms at once, so disconnect cleanup must sweep
// all of them, not just the most recently joined.
func (s *RoomStore) WithPlayer(playerID uuid.UUID) []*Room {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	var out []*Room
	for _, r := range rooms {
		r.Mu.Lock()
		seated := r.PlayerByID(playerID) != nil
		r.Mu.Unlock()
		if seated {
			out = append(out, r)
		}
	}
	return out
}

// Listings builds the lobby snapshot of every room. Each room is locked
// briefly for a consistent per-room view; the list as a whole is not atomic.
func (s *RoomStore) Listings() []RoomListing {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	out := make([]RoomListing, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		out = append(out, r.Listing())
		r.Mu.Unlock()
	}
	return out
}
