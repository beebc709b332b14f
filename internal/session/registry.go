// Package session maps transport connections to durable player sessions.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
)

// Registry tracks which connections belong to which user and the per-user session
// that outlives any single connection. A user may hold several connections at once
// and is online while at least one is bound.
type Registry struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]int64              // connID -> userID
	byUser   map[int64]map[uuid.UUID]struct{} // userID -> live connIDs
	sessions map[int64]*models.PlayerSession  // durable, keyed by user
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[uuid.UUID]int64),
		byUser:   make(map[int64]map[uuid.UUID]struct{}),
		sessions: make(map[int64]*models.PlayerSession),
	}
}

// Bind attaches an authenticated connection to the user's session, creating the
// session on first contact. The returned copy carries the new ConnID together with
// any room the user was already part of.
func (r *Registry) Bind(connID uuid.UUID, userID int64) models.PlayerSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.byUser[userID] = set
	}
	set[connID] = struct{}{}

	s, ok := r.sessions[userID]
	if !ok {
		s = &models.PlayerSession{UserID: userID}
		r.sessions[userID] = s
	}
	s.ConnID = connID
	return *s
}

// Lookup returns the session bound to a connection.
func (r *Registry) Lookup(connID uuid.UUID) (models.PlayerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.conns[connID]
	if !ok {
		return models.PlayerSession{}, false
	}
	s := *r.sessions[userID]
	s.ConnID = connID
	return s, true
}

// Unbind detaches a connection. last reports whether it was the user's final live
// connection. The session itself is kept so a reconnect finds the room again.
func (r *Registry) Unbind(connID uuid.UUID) (s models.PlayerSession, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.conns[connID]
	if !ok {
		return models.PlayerSession{}, false, false
	}
	delete(r.conns, connID)

	set := r.byUser[userID]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.byUser, userID)
		last = true
	}

	sess := r.sessions[userID]
	// Sessions that are not part of a room carry nothing worth keeping.
	if last && !sess.InRoom() {
		delete(r.sessions, userID)
	}
	out := *sess
	out.ConnID = connID
	return out, last, true
}

// SessionsFor returns every live connection of the user.
func (r *Registry) SessionsFor(userID int64) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Online reports whether the user has at least one bound connection.
func (r *Registry) Online(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Session returns the durable session of the user, if one exists.
func (r *Registry) Session(userID int64) (models.PlayerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return models.PlayerSession{}, false
	}
	return *s, true
}

// JoinRoom marks the user as playing in roomID.
func (r *Registry) JoinRoom(userID int64, roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = &models.PlayerSession{UserID: userID}
		r.sessions[userID] = s
	}
	s.RoomID = roomID
	s.InGame = true
}

// LeaveRoom clears the user's room. Offline users lose their session entirely.
func (r *Registry) LeaveRoom(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		return
	}
	s.RoomID = uuid.Nil
	s.InGame = false
	if len(r.byUser[userID]) == 0 {
		delete(r.sessions, userID)
	}
}
