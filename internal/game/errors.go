package game

import (
	"errors"

	"github.com/jason-s-yu/pong/internal/matchmaking"
)

var (
	// ErrNotFound is returned when an invitation or one of its users cannot be resolved.
	ErrNotFound = errors.New("not found")
	// ErrUnknownRoom is returned for commands naming a room that is not running.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrNotAParticipant is returned when a user addresses a room they do not play in.
	ErrNotAParticipant = errors.New("not a participant")
	// ErrRoomNotActive is returned for input sent before play starts or after it ends.
	ErrRoomNotActive = errors.New("room not active")
	// ErrRoomAlreadyEnded is returned by a repeated EndGame.
	ErrRoomAlreadyEnded = errors.New("room already ended")
	// ErrInvalidDirection is returned for an unknown paddle direction.
	ErrInvalidDirection = errors.New("invalid paddle direction")

	// ErrAlreadyInGame is shared with the queue so callers can match on one value.
	ErrAlreadyInGame = matchmaking.ErrAlreadyInGame
)
