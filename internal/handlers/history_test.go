package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/jason-s-yu/pong/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	matches []models.MatchSummary
	limit   int
}

func (f *fakeHistory) Recent(_ context.Context, _ int64, limit int) ([]models.MatchSummary, error) {
	f.limit = limit
	return f.matches, nil
}

type fakeRatings map[int64]rating.Rating

func (f fakeRatings) Get(_ context.Context, userSeq int64) (rating.Rating, error) {
	r, ok := f[userSeq]
	if !ok {
		return rating.Rating{}, errors.New("db down")
	}
	return r, nil
}

func TestHistoryHandler(t *testing.T) {
	f := newFixture(t)
	history := &fakeHistory{matches: []models.MatchSummary{{RoomID: uuid.New(), WinnerUserID: 1}}}
	mux := http.NewServeMux()
	mux.Handle("/game/history", HistoryHandler(f.logger, history))

	w := do(mux, http.MethodGet, "/game/history?limit=5", tokenFor(t, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, history.limit)
	var got []models.MatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	w = do(mux, http.MethodGet, "/game/history?limit=0", tokenFor(t, 1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	history.matches = nil
	w = do(mux, http.MethodGet, "/game/history", tokenFor(t, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, 20, history.limit)
}

func TestRatingHandler(t *testing.T) {
	f := newFixture(t)
	mux := http.NewServeMux()
	mux.Handle("/game/rating", RatingHandler(f.logger, fakeRatings{1: rating.Default()}))

	w := do(mux, http.MethodGet, "/game/rating", tokenFor(t, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"elo":1500`)

	w = do(mux, http.MethodGet, "/game/rating", tokenFor(t, 2))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
