package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/game/invite/{id}/accept", AcceptInviteHandler(f.logger, f.svc, f.invitations))
	mux.Handle("/game/current", CurrentGameHandler(f.svc))
	mux.Handle("/healthz", HealthHandler(f.svc, f.hub))
	return mux
}

func do(mux http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	mux := f.mux()

	w := do(mux, http.MethodPost, "/game/invite/7/accept", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(mux, http.MethodPost, "/game/invite/7/accept", tokenFor(t, 1))
	assert.Equal(t, http.StatusForbidden, w.Code, "only the receiver may accept")

	w = do(mux, http.MethodPost, "/game/invite/404/accept", tokenFor(t, 2))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(mux, http.MethodPost, "/game/invite/7/accept", tokenFor(t, 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.MetaData.PlayerBlue.UserID)
	assert.Equal(t, int64(1), snap.MetaData.PlayerRed.UserID)
	assert.Equal(t, game.DefaultRuleState(), snap.RuleData)
	assert.Equal(t, []int64{7}, f.invitations.accepted)

	w = do(mux, http.MethodPost, "/game/invite/7/accept", tokenFor(t, 2))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAcceptInviteUnknownUser(t *testing.T) {
	f := newFixture(t)
	w := do(f.mux(), http.MethodPost, "/game/invite/8/accept", tokenFor(t, 500))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrentGame(t *testing.T) {
	f := newFixture(t)
	mux := f.mux()

	w := do(mux, http.MethodGet, "/game/current", tokenFor(t, 1))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(mux, http.MethodPost, "/game/invite/7/accept", tokenFor(t, 2))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(mux, http.MethodGet, "/game/current", tokenFor(t, 1))
	require.Equal(t, http.StatusOK, w.Code)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, game.StatusInitializing, snap.Status)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := do(f.mux(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
