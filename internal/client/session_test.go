package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrelay/tictactoe/internal/game"
	"github.com/gridrelay/tictactoe/pkg/proto"
)

// newTestRelay starts a bare websocket endpoint and hands the
// server-side connection to the test, which plays the relay's role by
// reading and writing frames directly.
func newTestRelay(t *testing.T) (string, chan *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func dialTestRelay(t *testing.T) (*Session, *websocket.Conn) {
	t.Helper()

	url, conns := newTestRelay(t)
	sess, err := Dial(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	select {
	case server := <-conns:
		t.Cleanup(func() { server.Close() })
		return sess, server
	case <-time.After(2 * time.Second):
		t.Fatal("server side never saw the connection")
		return nil, nil
	}
}

func nextEvent(t *testing.T, sess *Session) Event {
	t.Helper()

	select {
	case ev, ok := <-sess.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func readClientFrame(t *testing.T, server *websocket.Conn) proto.ClientMessage {
	t.Helper()

	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg proto.ClientMessage
	require.NoError(t, server.ReadJSON(&msg))
	return msg
}

// startPlaying walks the session through join, assignment and
// game_ready so tests can start from the Playing state.
func startPlaying(t *testing.T, sess *Session, server *websocket.Conn, symbol game.Mark) {
	t.Helper()

	require.NoError(t, sess.Join("ROOM42"))
	readClientFrame(t, server)

	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:   proto.TypePlayerAssignment,
		Symbol: symbol,
	}))
	nextEvent(t, sess)

	board := game.Board{}
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeGameReady,
		Board: &board,
		Turn:  game.X,
	}))
	nextEvent(t, sess)

	require.Equal(t, Playing, sess.State())
}

func TestNewRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := NewRoomCode()
		assert.Len(t, code, 6)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	// 50 draws from a 36^6 space colliding down to one value would
	// mean the generator is broken.
	assert.Greater(t, len(seen), 1)
}

func TestJoinSendsFrameAndAwaitsAssignment(t *testing.T) {
	sess, server := dialTestRelay(t)

	require.Equal(t, Connecting, sess.State())
	require.NoError(t, sess.Join("  room42  "))
	assert.Equal(t, AwaitingAssignment, sess.State())
	assert.Equal(t, "ROOM42", sess.RoomCode())

	frame := readClientFrame(t, server)
	assert.Equal(t, proto.TypeJoinRoom, frame.Type)
	assert.Equal(t, "ROOM42", frame.Room)

	// A second join on a live session is refused locally.
	assert.ErrorIs(t, sess.Join("OTHER"), ErrNotConnected)
}

func TestAssignmentAndReadyTransitions(t *testing.T) {
	sess, server := dialTestRelay(t)

	require.NoError(t, sess.Join("ROOM42"))
	readClientFrame(t, server)

	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:   proto.TypePlayerAssignment,
		Symbol: game.O,
	}))
	ev := nextEvent(t, sess)
	assert.Equal(t, EventAssigned, ev.Type)
	assert.Equal(t, game.O, ev.Symbol)
	assert.Equal(t, AwaitingOpponent, sess.State())
	assert.Equal(t, game.O, sess.Symbol())

	board := game.Board{}
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeGameReady,
		Board: &board,
		Turn:  game.X,
	}))
	ev = nextEvent(t, sess)
	assert.Equal(t, EventReady, ev.Type)
	assert.Equal(t, Playing, sess.State())
	assert.Equal(t, game.X, sess.Turn())
}

func TestMoveSendsFrameWhenAllowed(t *testing.T) {
	sess, server := dialTestRelay(t)
	startPlaying(t, sess, server, game.X)

	require.NoError(t, sess.Move(4))

	frame := readClientFrame(t, server)
	assert.Equal(t, proto.TypeMakeMove, frame.Type)
	assert.Equal(t, "ROOM42", frame.Room)
	assert.Equal(t, 4, frame.Index)
	assert.Equal(t, "X", frame.Symbol)

	// The local board only changes when the broadcast comes back.
	assert.Equal(t, game.Board{}, sess.Board())

	board := game.Board{}
	board[4] = game.X
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeMoveMade,
		Board: &board,
		Turn:  game.O,
	}))
	ev := nextEvent(t, sess)
	assert.Equal(t, EventMove, ev.Type)
	assert.Equal(t, board, sess.Board())
	assert.Equal(t, game.O, sess.Turn())
	assert.Equal(t, Playing, sess.State())
}

func TestMovePreFilter(t *testing.T) {
	sess, server := dialTestRelay(t)

	// Not playing yet.
	assert.ErrorIs(t, sess.Move(0), ErrNotPlaying)

	startPlaying(t, sess, server, game.O)

	// Playing as O, but it is X's turn.
	assert.ErrorIs(t, sess.Move(0), ErrNotYourTurn)

	board := game.Board{}
	board[0] = game.X
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeMoveMade,
		Board: &board,
		Turn:  game.O,
	}))
	nextEvent(t, sess)

	assert.ErrorIs(t, sess.Move(-1), ErrInvalidCell)
	assert.ErrorIs(t, sess.Move(9), ErrInvalidCell)
	assert.ErrorIs(t, sess.Move(0), ErrCellOccupied)

	// None of the rejected intents reached the wire.
	server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var frame proto.ClientMessage
	assert.Error(t, server.ReadJSON(&frame))
}

func TestTerminalMoveEntersGameOver(t *testing.T) {
	sess, server := dialTestRelay(t)
	startPlaying(t, sess, server, game.X)

	board := game.Board{
		game.X, game.X, game.X,
		game.O, game.O, game.None,
		game.None, game.None, game.None,
	}
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeMoveMade,
		Board: &board,
		Turn:  game.O,
	}))
	ev := nextEvent(t, sess)
	assert.Equal(t, EventMove, ev.Type)
	assert.Equal(t, game.X, ev.Result.Winner)
	assert.Equal(t, [3]int{0, 1, 2}, ev.Result.Line)
	assert.Equal(t, GameOver, sess.State())

	// No more moves until a reset.
	assert.ErrorIs(t, sess.Move(5), ErrNotPlaying)

	require.NoError(t, sess.Reset())
	frame := readClientFrame(t, server)
	assert.Equal(t, proto.TypeResetGame, frame.Type)
	assert.Equal(t, "ROOM42", frame.Room)

	empty := game.Board{}
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeGameReset,
		Board: &empty,
		Turn:  game.X,
	}))
	ev = nextEvent(t, sess)
	assert.Equal(t, EventReset, ev.Type)
	assert.Equal(t, Playing, sess.State())
	assert.Equal(t, game.Board{}, sess.Board())
	assert.False(t, sess.Result().Over())
}

func TestServerBoardAdoptedUnconditionally(t *testing.T) {
	sess, server := dialTestRelay(t)
	startPlaying(t, sess, server, game.X)

	// A board that contradicts anything the client could have
	// produced locally still replaces the local view wholesale.
	board := game.Board{
		game.O, game.None, game.None,
		game.None, game.O, game.None,
		game.None, game.None, game.None,
	}
	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:  proto.TypeMoveMade,
		Board: &board,
		Turn:  game.X,
	}))
	nextEvent(t, sess)
	assert.Equal(t, board, sess.Board())
	assert.Equal(t, game.X, sess.Turn())
}

func TestErrorFrameSurfaced(t *testing.T) {
	sess, server := dialTestRelay(t)

	require.NoError(t, sess.Join("FULL01"))
	readClientFrame(t, server)

	require.NoError(t, server.WriteJSON(proto.ServerMessage{
		Type:    proto.TypeError,
		Message: "room is full",
	}))
	ev := nextEvent(t, sess)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "room is full", ev.Message)
}

func TestConnectionDropEmitsClosed(t *testing.T) {
	sess, server := dialTestRelay(t)
	startPlaying(t, sess, server, game.X)

	require.NoError(t, server.Close())

	ev := nextEvent(t, sess)
	assert.Equal(t, EventClosed, ev.Type)
	assert.Equal(t, Disconnected, sess.State())

	_, ok := <-sess.Events()
	assert.False(t, ok, "event channel should be closed after the drop")
}
