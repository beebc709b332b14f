package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/sirupsen/logrus"
)

// InvitationStore is what the invite endpoint needs from the alarm table.
type InvitationStore interface {
	game.InvitationStore
	MarkAccepted(ctx context.Context, id int64) error
}

// AcceptInviteHandler handles POST /game/invite/{id}/accept. Only the invited user may
// accept; the room starts immediately with default rules.
func AcceptInviteHandler(logger *logrus.Logger, svc *game.Service, invitations InvitationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, err := auth.AuthenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid invitation id", http.StatusBadRequest)
			return
		}

		inv, err := invitations.GetInvitationByID(r.Context(), id)
		if err != nil {
			logger.WithError(err).WithField("invitation", id).Error("failed to load invitation")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if inv == nil {
			http.Error(w, "invitation not found", http.StatusNotFound)
			return
		}
		if inv.ReceiverSeq != userID {
			http.Error(w, "not the invited user", http.StatusForbidden)
			return
		}

		room, err := svc.HandleAcceptInvite(r.Context(), id)
		switch {
		case errors.Is(err, game.ErrNotFound):
			http.Error(w, "invitation or user not found", http.StatusNotFound)
			return
		case errors.Is(err, game.ErrAlreadyInGame):
			http.Error(w, "a player is already in a game", http.StatusConflict)
			return
		case err != nil:
			logger.WithError(err).WithField("invitation", id).Error("failed to accept invitation")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := invitations.MarkAccepted(r.Context(), id); err != nil {
			logger.WithError(err).WithField("invitation", id).Warn("failed to mark invitation accepted")
		}
		writeJSON(w, http.StatusCreated, room.Snapshot())
	}
}

// CurrentGameHandler handles GET /game/current: the caller's live room, or 404.
func CurrentGameHandler(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.AuthenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		room, ok := svc.FindRoomFor(userID)
		if !ok {
			http.Error(w, "not in a game", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, room.Snapshot())
	}
}

// HealthHandler reports liveness with room and connection counts.
func HealthHandler(svc *game.Service, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := svc.Stats()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"rooms":       stats.Rooms,
			"queued":      stats.Queued,
			"connections": hub.Connections(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
