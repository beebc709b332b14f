package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/jason-s-yu/pong/internal/session"
	"github.com/sirupsen/logrus"
)

// outBuffer is sized to absorb a burst of render frames from one room.
const outBuffer = 64

// Message is the JSON envelope for every frame in both directions.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// GameConnection is a single open game socket.
type GameConnection struct {
	ID      uuid.UUID
	UserID  int64
	Cancel  func()
	OutChan chan Message

	logger *logrus.Logger
}

func newGameConnection(userID int64, cancel func(), logger *logrus.Logger) *GameConnection {
	return &GameConnection{
		ID:      uuid.New(),
		UserID:  userID,
		Cancel:  cancel,
		OutChan: make(chan Message, outBuffer),
		logger:  logger,
	}
}

// Write pushes a message onto the connection's OutChan without blocking. Messages for
// a full channel are dropped.
func (conn *GameConnection) Write(msg Message) {
	select {
	case conn.OutChan <- msg:
	default:
		conn.logger.WithFields(logrus.Fields{"user": conn.UserID, "conn": conn.ID}).Warnf("OutChan full, dropped message type '%s'", msg.Type)
	}
}

// WriteError sends an error frame.
func (conn *GameConnection) WriteError(msg string) {
	conn.Write(Message{Type: "error", Payload: map[string]string{"message": msg}})
}

// Presence mirrors who is online to other services. It is optional.
type Presence interface {
	SetOnline(ctx context.Context, userSeq int64) error
	SetOffline(ctx context.Context, userSeq int64) error
}

// Hub fans room and user events out to sockets. It implements game.Publisher and
// keeps the session registry's room membership in step with game:match and game:end.
type Hub struct {
	logger   *logrus.Logger
	registry *session.Registry
	presence Presence

	mu    sync.RWMutex
	conns map[uuid.UUID]*GameConnection
}

func NewHub(registry *session.Registry, presence Presence, logger *logrus.Logger) *Hub {
	return &Hub{
		logger:   logger,
		registry: registry,
		presence: presence,
		conns:    make(map[uuid.UUID]*GameConnection),
	}
}

// Registry exposes the session registry the hub keeps in sync.
func (h *Hub) Registry() *session.Registry {
	return h.registry
}

// Register binds a new connection and returns the user's session as it stands.
func (h *Hub) Register(conn *GameConnection) models.PlayerSession {
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	s := h.registry.Bind(conn.ID, conn.UserID)
	h.setPresence(conn.UserID, true)
	return s
}

// Unregister drops a connection. last reports whether it was the user's final one.
func (h *Hub) Unregister(conn *GameConnection) (s models.PlayerSession, last bool) {
	h.mu.Lock()
	delete(h.conns, conn.ID)
	h.mu.Unlock()

	s, last, ok := h.registry.Unbind(conn.ID)
	if ok && last {
		h.setPresence(conn.UserID, false)
	}
	return s, ok && last
}

// Publish delivers a game event to every connection of its recipients.
func (h *Hub) Publish(ev game.Event) {
	if ev.Type == game.EventMatch {
		for _, userID := range ev.Users {
			h.registry.JoinRoom(userID, ev.RoomID)
		}
	}

	h.SendToUsers(ev.Users, Message{Type: string(ev.Type), Payload: ev.Payload})

	if ev.Type == game.EventEnd {
		for _, userID := range ev.Users {
			h.registry.LeaveRoom(userID)
		}
	}
}

// SendToUsers writes msg to every open connection of the given users.
func (h *Hub) SendToUsers(users []int64, msg Message) {
	for _, userID := range users {
		for _, connID := range h.registry.SessionsFor(userID) {
			h.mu.RLock()
			conn, ok := h.conns[connID]
			h.mu.RUnlock()
			if ok {
				conn.Write(msg)
			}
		}
	}
}

// Connections returns the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) setPresence(userID int64, online bool) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var err error
	if online {
		err = h.presence.SetOnline(ctx, userID)
	} else {
		err = h.presence.SetOffline(ctx, userID)
	}
	if err != nil {
		h.logger.WithError(err).WithField("user", userID).Warn("failed to update presence")
	}
}
