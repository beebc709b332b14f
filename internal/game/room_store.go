package game

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore indexes live rooms by id and by participant. Both maps change together
// under one lock so a user is never visible in two rooms.
type RoomStore struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]*Room
	byUser map[int64]uuid.UUID
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[uuid.UUID]*Room),
		byUser: make(map[int64]uuid.UUID),
	}
}

// Insert adds the room and both of its players. It fails without changes if either
// player is already indexed.
func (s *RoomStore) Insert(r *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blue, red := r.Meta.PlayerBlue.UserID, r.Meta.PlayerRed.UserID
	if _, ok := s.byUser[blue]; ok {
		return ErrAlreadyInGame
	}
	if _, ok := s.byUser[red]; ok {
		return ErrAlreadyInGame
	}
	s.rooms[r.ID()] = r
	s.byUser[blue] = r.ID()
	s.byUser[red] = r.ID()
	return nil
}

// Remove drops the room and its players' index entries, returning the room if it was present.
func (s *RoomStore) Remove(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	delete(s.rooms, id)
	for _, userID := range []int64{r.Meta.PlayerBlue.UserID, r.Meta.PlayerRed.UserID} {
		if s.byUser[userID] == id {
			delete(s.byUser, userID)
		}
	}
	return r, true
}

func (s *RoomStore) Get(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// RoomIDFor returns the room the user is playing in.
func (s *RoomStore) RoomIDFor(userID int64) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	return id, ok
}

// FindByUser returns the room the user is playing in, or nil.
func (s *RoomStore) FindByUser(userID int64) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	if !ok {
		return nil
	}
	return s.rooms[id]
}

func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// All returns the live rooms in no particular order.
func (s *RoomStore) All() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}
