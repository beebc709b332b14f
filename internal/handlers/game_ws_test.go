package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t *testing.T
	c *websocket.Conn
}

func (f *fixture) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.Handle("/game/ws", GameWSHandler(f.logger, f.svc, f.hub, nil))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*testClient, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	c, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/game/ws", &websocket.DialOptions{
		Subprotocols: []string{"game"},
		HTTPHeader:   header,
	})
	if err != nil {
		return nil, resp, err
	}
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return &testClient{t: t, c: c}, resp, nil
}

func (tc *testClient) send(typ string, payload interface{}) {
	tc.t.Helper()
	data, err := json.Marshal(map[string]interface{}{"type": typ, "payload": payload})
	require.NoError(tc.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(tc.t, tc.c.Write(ctx, websocket.MessageText, data))
}

// await reads frames until one of the given type arrives.
func (tc *testClient) await(typ string) json.RawMessage {
	tc.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, data, err := tc.c.Read(ctx)
		require.NoError(tc.t, err, "waiting for %s", typ)
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(tc.t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg.Payload
		}
	}
}

func TestGameWSRejectsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)

	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, f.hub.Connections())

	_, resp, err = dial(t, srv, "garbage")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGameWSPingPong(t *testing.T) {
	f := newFixture(t)
	client, _, err := dial(t, f.server(t), tokenFor(t, 1))
	require.NoError(t, err)

	client.send("ping", nil)
	client.await("pong")

	client.send("nope", nil)
	assert.Contains(t, string(client.await("error")), "unknown message type")
}

func TestGameWSMatchmakingAndReconnect(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t)
	rule := map[string]interface{}{"ballSpeed": 1, "paddleSize": 1, "matchScore": 5, "isRankGame": false}

	alice, _, err := dial(t, srv, tokenFor(t, 1))
	require.NoError(t, err)
	bob, _, err := dial(t, srv, tokenFor(t, 2))
	require.NoError(t, err)

	alice.send("enQ", rule)
	require.Eventually(t, func() bool { return f.svc.Stats().Queued == 1 }, time.Second, 5*time.Millisecond)
	bob.send("enQ", rule)

	var match struct {
		Blue int64 `json:"blue"`
		Red  int64 `json:"red"`
	}
	require.NoError(t, json.Unmarshal(alice.await("game:match"), &match))
	assert.Equal(t, int64(1), match.Blue)
	assert.Equal(t, int64(2), match.Red)
	bob.await("game:match")
	bob.await("game:ready")
	alice.await("game:start")

	alice.send("enQ", rule)
	assert.Contains(t, string(alice.await("error")), "already in game")

	// Alice drops; Bob hears about it.
	require.NoError(t, alice.c.Close(websocket.StatusNormalClosure, ""))
	assert.Contains(t, string(bob.await("player:leave")), `"userSeq":1`)

	// Alice comes back on a new socket and is put back into the room.
	alice2, _, err := dial(t, srv, tokenFor(t, 1))
	require.NoError(t, err)
	alice2.await("game:ready")
	assert.Contains(t, string(bob.await("player:join")), `"userSeq":1`)
}
