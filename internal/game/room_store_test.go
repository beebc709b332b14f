package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(blue, red int64) *Room {
	meta := MetaData{
		RoomID:     uuid.New(),
		PlayerBlue: models.PlayerSession{UserID: blue},
		PlayerRed:  models.PlayerSession{UserID: red},
	}
	return newRoom(meta, DefaultRuleState(), DefaultArena)
}

func TestRoomStoreInsertAndRemove(t *testing.T) {
	s := NewRoomStore()
	r := testRoom(1, 2)
	require.NoError(t, s.Insert(r))

	got, ok := s.Get(r.ID())
	require.True(t, ok)
	assert.Same(t, r, got)
	id, ok := s.RoomIDFor(2)
	assert.True(t, ok)
	assert.Equal(t, r.ID(), id)
	assert.Same(t, r, s.FindByUser(1))
	assert.Equal(t, 1, s.Len())

	removed, ok := s.Remove(r.ID())
	require.True(t, ok)
	assert.Same(t, r, removed)
	assert.Nil(t, s.FindByUser(1))
	assert.Nil(t, s.FindByUser(2))
	assert.Zero(t, s.Len())

	_, ok = s.Remove(r.ID())
	assert.False(t, ok, "second removal is a no-op")
}

func TestRoomStoreRejectsUserInTwoRooms(t *testing.T) {
	s := NewRoomStore()
	require.NoError(t, s.Insert(testRoom(1, 2)))

	err := s.Insert(testRoom(3, 2))
	assert.ErrorIs(t, err, ErrAlreadyInGame)
	assert.Nil(t, s.FindByUser(3), "failed insert leaves no partial entries")
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.All(), 1)
}
