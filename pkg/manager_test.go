package pkg

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mtaylor91/bingo-server/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, options ManagerOptions) (*httptest.Server, *Manager) {
	t.Helper()

	manager := NewManager(options)
	manager.SetDispatcher(game.NewCoordinator(
		game.NewRegistry(game.NewShuffler(1), nil),
		manager,
	))

	router := mux.NewRouter()
	manager.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, manager
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/socket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, event game.EventType, payload any) {
	t.Helper()

	message, err := encodeMessage(event, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, message))
}

func receive(t *testing.T, conn *websocket.Conn, event game.EventType, payload any) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	m, err := decodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, event, m.Event, "unexpected message %s", data)
	require.NoError(t, json.Unmarshal(m.Data, payload))
}

func TestManagerHealth(t *testing.T) {
	srv, _ := newTestServer(t, ManagerOptions{})

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestManagerGame(t *testing.T) {
	srv, _ := newTestServer(t, ManagerOptions{})

	alice := dial(t, srv)
	bob := dial(t, srv)

	send(t, alice, game.EventCreateRoom, game.CreateRoomRequest{Name: "Alice"})
	var created game.RoomCreated
	receive(t, alice, game.EventRoomCreated, &created)
	require.Len(t, created.RoomCode, 5)
	assert.Equal(t, strings.ToUpper(created.RoomCode), created.RoomCode)

	send(t, bob, game.EventJoinRoom, game.JoinRoomRequest{
		RoomCode: strings.ToLower(created.RoomCode),
		Name:     "Bob",
	})

	var aliceStart, bobStart game.GameStart
	receive(t, alice, game.EventGameStart, &aliceStart)
	receive(t, bob, game.EventGameStart, &bobStart)
	assert.Equal(t, aliceStart, bobStart)
	require.Len(t, aliceStart.Players, 2)

	aliceID, bobID := aliceStart.Players[0], aliceStart.Players[1]
	assert.Equal(t, aliceID, aliceStart.Turn)
	assert.Equal(t, created.Board, aliceStart.Boards[aliceID])

	resp, err := http.Get(srv.URL + "/api/v1/rooms/" + created.RoomCode)
	require.NoError(t, err)
	var status game.RoomStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, game.RoomStatus{
		RoomCode: created.RoomCode,
		State:    game.RoomStateActive,
		Players:  []string{"Alice", "Bob"},
		Turn:     aliceID,
	}, status)

	send(t, alice, game.EventCallNumber, game.CallNumberRequest{RoomCode: created.RoomCode, Number: 5})

	var aliceCalled, bobCalled game.NumberCalled
	receive(t, alice, game.EventNumberCalled, &aliceCalled)
	receive(t, bob, game.EventNumberCalled, &bobCalled)
	assert.Equal(t, aliceCalled, bobCalled)
	assert.Equal(t, 5, aliceCalled.Number)
	assert.Equal(t, bobID, aliceCalled.Turn)

	idx := aliceStart.Boards[bobID].IndexOf(5)
	assert.True(t, aliceCalled.Marks[bobID][idx])

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("not json")))
	var notice string
	receive(t, bob, game.EventError, &notice)
	assert.Equal(t, "Malformed message.", notice)

	require.NoError(t, bob.Close())
	receive(t, alice, game.EventError, &notice)
	assert.Equal(t, "A player has disconnected. Game ended.", notice)

	resp, err = http.Get(srv.URL + "/api/v1/rooms/" + created.RoomCode)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManagerJoinUnknownRoom(t *testing.T) {
	srv, _ := newTestServer(t, ManagerOptions{})

	conn := dial(t, srv)
	send(t, conn, game.EventJoinRoom, game.JoinRoomRequest{RoomCode: "zzzzz", Name: "Bob"})

	var notice string
	receive(t, conn, game.EventError, &notice)
	assert.Equal(t, "Room does not exist.", notice)
}

func TestManagerBroadcast(t *testing.T) {
	srv, manager := newTestServer(t, ManagerOptions{})

	alice := dial(t, srv)
	bob := dial(t, srv)

	require.Eventually(t, func() bool {
		manager.lock.RLock()
		defer manager.lock.RUnlock()
		return len(manager.sessions) == 2
	}, 5*time.Second, 10*time.Millisecond)

	manager.Broadcast(game.EventError, "Server is shutting down.")

	for _, conn := range []*websocket.Conn{alice, bob} {
		var notice string
		receive(t, conn, game.EventError, &notice)
		assert.Equal(t, "Server is shutting down.", notice)
	}
}

func TestManagerRejectsForeignOrigins(t *testing.T) {
	srv, _ := newTestServer(t, ManagerOptions{AllowedOrigins: []string{"http://good.example"}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/socket"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"http://good.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestManagerGroups(t *testing.T) {
	manager := NewManager(ManagerOptions{SendBuffer: 1})
	session := manager.NewSession(nil)

	manager.AddToGroup("ROOMS", session.id())
	manager.AddToGroup("ROOMS", session.id())
	require.NotNil(t, manager.GetGroup("ROOMS"))
	assert.Len(t, manager.GetGroup("ROOMS").members(), 1)

	manager.EmitToGroup("ROOMS", game.EventError, "first")
	manager.EmitToGroup("ROOMS", game.EventError, "dropped")
	assert.Len(t, session.send, 1)

	manager.RemoveFromGroup("ROOMS", session.id())
	assert.Nil(t, manager.GetGroup("ROOMS"))
	assert.Empty(t, session.memberships())

	manager.AddToGroup("ROOMS", "not-a-uuid")
	assert.Nil(t, manager.GetGroup("ROOMS"))
}
