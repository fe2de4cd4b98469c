package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/Andy260/project-deception/internal/adapters/http"
	"github.com/Andy260/project-deception/internal/adapters/ws"
	"github.com/Andy260/project-deception/internal/app"
	"github.com/Andy260/project-deception/internal/config"
	"github.com/Andy260/project-deception/internal/roomcode"
	"github.com/Andy260/project-deception/internal/storage"
)

type testEnv struct {
	srv    *httptest.Server
	reg    *ws.Registry
	cancel context.CancelFunc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:             "test",
		StaticPath:       t.TempDir(),
		ReadLimit:        4096,
		PingPeriod:       30 * time.Second,
		WriteTimeout:     2 * time.Second,
		SendBuffer:       32,
		Secret:           "test-secret",
		CreateRetryLimit: 16,
	}
	store := storage.NewMemory()
	coordinator := app.NewCoordinator(store, cfg.CreateRetryLimit)
	reg := ws.NewRegistry()
	gateway := ws.NewGateway(coordinator, app.NewChatRouter(store), reg, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(router.SetupRouter(ctx, cfg, gateway))
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)
	return &testEnv{srv: srv, reg: reg, cancel: cancel}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestEnv(t).srv
}

// dial opens a fresh connection; the server mints a new connection id
// per cookieless request, so every dial is a distinct player.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	return dialWithHeader(t, srv, nil)
}

func dialWithHeader(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestCreateJoinChatLeave(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, map[string]any{"type": "create_room", "name": "Alice"})
	created := recv(t, alice)
	require.Equal(t, "room_created", created["type"])
	code, _ := created["room"].(string)
	require.True(t, roomcode.IsValid(code), "got room code %q", code)

	bob := dial(t, srv)
	send(t, bob, map[string]any{"type": "join_room", "room": code, "name": "Bob"})
	state := recv(t, bob)
	require.Equal(t, "room_state", state["type"])
	assert.Equal(t, code, state["room"])
	assert.EqualValues(t, 2, state["count"])

	joined := recv(t, alice)
	require.Equal(t, "player_joined", joined["type"])
	assert.Equal(t, "Bob", joined["name"])

	send(t, bob, map[string]any{"type": "chat", "message": "hi"})
	chat := recv(t, alice)
	require.Equal(t, "chat", chat["type"])
	assert.Equal(t, "hi", chat["message"])
	assert.Equal(t, "Bob", chat["from"])

	send(t, bob, map[string]any{"type": "leave_room"})
	left := recv(t, bob)
	require.Equal(t, "room_left", left["type"])

	gone := recv(t, alice)
	require.Equal(t, "player_left", gone["type"])
	assert.Equal(t, "Bob", gone["name"])
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := newTestServer(t)

	carol := dial(t, srv)
	send(t, carol, map[string]any{"type": "join_room", "room": "ZZZZZZ", "name": "Carol"})
	msg := recv(t, carol)
	require.Equal(t, "error", msg["type"])
	assert.Equal(t, "invalid_room_code", msg["error"])
}

func TestChatWithoutRoom(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, map[string]any{"type": "chat", "message": "hello?"})
	msg := recv(t, conn)
	require.Equal(t, "error", msg["type"])
	assert.Equal(t, "no_room_joined", msg["error"])
}

func TestLeaveWithoutRoom(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, map[string]any{"type": "leave_room"})
	msg := recv(t, conn)
	require.Equal(t, "error", msg["type"])
	assert.Equal(t, "no_room_joined", msg["error"])
}

func TestRejectsBadPayloads(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{name: "short name", payload: map[string]any{"type": "create_room", "name": "A"}, want: "bad_payload"},
		{name: "missing name", payload: map[string]any{"type": "create_room"}, want: "bad_payload"},
		{name: "malformed room code", payload: map[string]any{"type": "join_room", "room": "abc", "name": "Carol"}, want: "bad_payload"},
		{name: "below-floor room code", payload: map[string]any{"type": "join_room", "room": "00000Z", "name": "Carol"}, want: "bad_payload"},
		{name: "empty chat message", payload: map[string]any{"type": "chat", "message": ""}, want: "bad_payload"},
		{name: "unknown type", payload: map[string]any{"type": "dance"}, want: "unknown_type"},
	}

	for _, tt := range tests {
		send(t, conn, tt.payload)
		msg := recv(t, conn)
		require.Equal(t, "error", msg["type"], tt.name)
		assert.Equal(t, tt.want, msg["error"], tt.name)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, map[string]any{"type": "ping"})
	msg := recv(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestShutdownClosesConnections(t *testing.T) {
	env := newTestEnv(t)

	conn := dial(t, env.srv)
	send(t, conn, map[string]any{"type": "ping"})
	require.Equal(t, "pong", recv(t, conn)["type"])
	require.Equal(t, 1, env.reg.Count())

	env.cancel()

	// The write pump's exit must close the socket so the read side
	// unblocks and tears the connection down.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "server must close the socket, not leave it half-dead")

	require.Eventually(t, func() bool { return env.reg.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestSecondTabReplacesFirst(t *testing.T) {
	srv := newTestServer(t)
	header := http.Header{"Cookie": []string{"ct=tab-token"}}

	first := dialWithHeader(t, srv, header)
	send(t, first, map[string]any{"type": "create_room", "name": "Alice"})
	created := recv(t, first)
	require.Equal(t, "room_created", created["type"])

	// Same token again: the newest connection wins and the old one is
	// closed by the server.
	second := dialWithHeader(t, srv, header)
	require.NoError(t, first.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err, "replaced connection must be closed")

	// The replaced connection's teardown must not unseat the player the
	// new connection now owns.
	send(t, second, map[string]any{"type": "leave_room"})
	left := recv(t, second)
	assert.Equal(t, "room_left", left["type"])
}

func TestDisconnectForcesLeave(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv)
	send(t, alice, map[string]any{"type": "create_room", "name": "Alice"})
	created := recv(t, alice)
	code, _ := created["room"].(string)
	require.True(t, roomcode.IsValid(code))

	bob := dial(t, srv)
	send(t, bob, map[string]any{"type": "join_room", "room": code, "name": "Bob"})
	recv(t, bob)  // room_state
	recv(t, alice) // player_joined

	require.NoError(t, bob.Close())

	gone := recv(t, alice)
	require.Equal(t, "player_left", gone["type"])
	assert.Equal(t, "Bob", gone["name"])
}
