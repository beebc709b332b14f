package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/jason-s-yu/pong/internal/rating"
	"github.com/sirupsen/logrus"
)

// HistoryReader lists a user's finished matches.
type HistoryReader interface {
	Recent(ctx context.Context, userSeq int64, limit int) ([]models.MatchSummary, error)
}

// RatingReader returns a user's ranked rating.
type RatingReader interface {
	Get(ctx context.Context, userSeq int64) (rating.Rating, error)
}

// HistoryHandler handles GET /game/history?limit=n for the caller.
func HistoryHandler(logger *logrus.Logger, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.AuthenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 100 {
				http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
				return
			}
			limit = n
		}
		matches, err := history.Recent(r.Context(), userID, limit)
		if err != nil {
			logger.WithError(err).WithField("user", userID).Error("failed to load match history")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if matches == nil {
			matches = []models.MatchSummary{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

// RatingHandler handles GET /game/rating for the caller.
func RatingHandler(logger *logrus.Logger, ratings RatingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.AuthenticateRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rt, err := ratings.Get(r.Context(), userID)
		if err != nil {
			logger.WithError(err).WithField("user", userID).Error("failed to load rating")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rt)
	}
}
