package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/jason-s-yu/pong/internal/matchmaking"
	"github.com/jason-s-yu/pong/internal/middleware"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/sirupsen/logrus"
)

// Inbound message types.
const (
	msgEnqueue = "enQ"
	msgDequeue = "deQ"
	msgPaddle  = "game:paddle"
	msgPing    = "ping"
	msgPong    = "pong"
)

// BadSubprotocolError closes sockets that did not negotiate the "game" subprotocol.
const BadSubprotocolError websocket.StatusCode = 3000

// paddlePayload is the body of game:paddle.
type paddlePayload struct {
	Direction game.PaddleDirection `json:"direction"`
}

// inbound is an undecoded client frame.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// GameWSHandler authenticates the caller, upgrades to a websocket speaking the "game"
// subprotocol and runs the connection until it closes. Unauthenticated requests are
// refused before the upgrade and never reach the session registry.
func GameWSHandler(logger *logrus.Logger, svc *game.Service, hub *Hub, originPatterns []string) http.HandlerFunc {
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.AuthenticateRequest(r)
		if err != nil {
			logger.WithError(err).WithField("remote", r.RemoteAddr).Warn("game ws authentication failed")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := newGameConnection(userID, cancel, logger)

		s := hub.Register(conn)
		middleware.LogWebSocketConnect(logger, r, userID)

		go writePump(ctx, c, conn, logger)
		if s.InRoom() {
			rejoin(svc, hub, conn)
		}

		err = readPump(ctx, c, svc, hub, conn, logger)

		cancel()
		if _, last := hub.Unregister(conn); last {
			if room, ok := svc.FindRoomFor(userID); ok {
				hub.SendToUsers(
					[]int64{room.Meta.Opponent(userID)},
					Message{Type: string(game.EventPlayerLeave), Payload: game.PlayerData{UserID: userID}},
				)
			}
			svc.HandleDisconnect(userID)
		}
		middleware.LogWebSocketDisconnect(logger, r, userID, err)
	}
}

// rejoin restores a player who reconnects mid-match: pending forfeits are cancelled,
// the new socket gets a full snapshot and the room hears player:join.
func rejoin(svc *game.Service, hub *Hub, conn *GameConnection) {
	room, ok := svc.HandleReconnect(conn.UserID)
	if !ok {
		// The match ended while the user was away.
		hub.Registry().LeaveRoom(conn.UserID)
		return
	}
	conn.Write(Message{Type: string(game.EventReady), Payload: room.Snapshot()})
	hub.SendToUsers(
		[]int64{room.Meta.PlayerBlue.UserID, room.Meta.PlayerRed.UserID},
		Message{Type: string(game.EventPlayerJoin), Payload: game.PlayerData{UserID: conn.UserID}},
	)
}

// readPump decodes client frames and dispatches them until the socket closes.
func readPump(ctx context.Context, c *websocket.Conn, svc *game.Service, hub *Hub, conn *GameConnection, logger *logrus.Logger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.WithField("user", conn.UserID).Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteError("invalid JSON format")
			continue
		}
		handleGameMessage(svc, hub, conn, msg, logger)
	}
}

func handleGameMessage(svc *game.Service, hub *Hub, conn *GameConnection, msg inbound, logger *logrus.Logger) {
	log := logger.WithFields(logrus.Fields{"user": conn.UserID, "type": msg.Type})

	switch msg.Type {
	case msgEnqueue, msgDequeue:
		var rule models.RulePreference
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &rule); err != nil {
				conn.WriteError("invalid rule payload")
				return
			}
		}
		s, ok := hub.Registry().Lookup(conn.ID)
		if !ok {
			conn.WriteError("session not found")
			return
		}
		if msg.Type == msgDequeue {
			svc.HandleDequeue(s, rule)
			return
		}
		if _, err := svc.HandleEnqueue(s, rule); err != nil {
			log.WithError(err).Debug("enqueue rejected")
			conn.WriteError(enqueueError(err))
		}

	case msgPaddle:
		var p paddlePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			conn.WriteError("invalid paddle payload")
			return
		}
		room, ok := svc.FindRoomFor(conn.UserID)
		if !ok {
			log.Debug("paddle input without a room")
			return
		}
		svc.HandlePaddleInput(room.ID(), conn.UserID, p.Direction)

	case msgPing:
		conn.Write(Message{Type: msgPong})

	default:
		log.Warn("unknown message type")
		conn.WriteError("unknown message type")
	}
}

func enqueueError(err error) string {
	switch {
	case errors.Is(err, matchmaking.ErrAlreadyInGame):
		return "already in game"
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		return "already queued"
	case errors.Is(err, models.ErrInvalidRule):
		return err.Error()
	default:
		return "enqueue failed"
	}
}

// writePump drains the connection's OutChan onto the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *GameConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing msg for user %v: %v", conn.UserID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for user %v: %v", conn.UserID, err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for user %v: %v", conn.UserID, err)
				conn.Cancel()
				return
			}
		}
	}
}
