package models

import "github.com/google/uuid"

// PlayerSession is the durable per-user record the game keeps while a user is connected.
// It survives reconnects: a new connection for the same user gets the same session back
// with a different ConnID.
type PlayerSession struct {
	UserID int64     `json:"userSeq"`
	ConnID uuid.UUID `json:"-"`

	// RoomID is uuid.Nil while the user is not part of a room.
	RoomID uuid.UUID `json:"roomId"`
	InGame bool      `json:"inGame"`
}

// InRoom reports whether the session currently belongs to a room.
func (s PlayerSession) InRoom() bool {
	return s.InGame || s.RoomID != uuid.Nil
}
