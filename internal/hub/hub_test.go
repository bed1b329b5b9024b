package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrelay/tictactoe/internal/game"
	"github.com/gridrelay/tictactoe/internal/repository"
	"github.com/gridrelay/tictactoe/internal/room"
	"github.com/gridrelay/tictactoe/pkg/proto"
)

// fakeConn records every frame the relay writes to it.
type fakeConn struct {
	frames []proto.ServerMessage
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	var msg proto.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.frames = append(f.frames, msg)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, fmt.Errorf("fakeConn does not read")
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func (f *fakeConn) last(t *testing.T) proto.ServerMessage {
	t.Helper()
	require.NotEmpty(t, f.frames)
	return f.frames[len(f.frames)-1]
}

// memStats counts recordings in memory.
type memStats struct {
	started int
	results []game.Result
}

func (m *memStats) RecordGameStarted(ctx context.Context) error { m.started++; return nil }
func (m *memStats) RecordResult(ctx context.Context, r game.Result) error {
	m.results = append(m.results, r)
	return nil
}
func (m *memStats) Snapshot(ctx context.Context) (*repository.Stats, error) { return nil, nil }

func newTestHub(opts ...Option) *Hub {
	return New(room.NewRegistry(), opts...)
}

func attach(h *Hub, id string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return &Client{ID: id, conn: conn}, conn
}

func deliver(h *Hub, c *Client, msg proto.ClientMessage) {
	data, _ := json.Marshal(msg)
	h.handleMessage(c, data)
}

func join(h *Hub, c *Client, code string) {
	deliver(h, c, proto.ClientMessage{Type: proto.TypeJoinRoom, Room: code})
}

func move(h *Hub, c *Client, code string, index int, symbol game.Mark) {
	deliver(h, c, proto.ClientMessage{Type: proto.TypeMakeMove, Room: code, Index: index, Symbol: string(symbol)})
}

func TestFirstJoinAssignsXWithoutReady(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")

	join(h, c1, "fresh1")

	require.Len(t, conn1.frames, 1, "first joiner gets the assignment only, no game_ready")
	assert.Equal(t, proto.TypePlayerAssignment, conn1.frames[0].Type)
	assert.Equal(t, game.X, conn1.frames[0].Symbol)
	assert.Equal(t, "FRESH1", c1.room)
}

func TestSecondJoinAssignsOAndBroadcastsReady(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	c2, conn2 := attach(h, "p2")

	join(h, c1, "ROOM1")
	join(h, c2, "room1")

	assert.Equal(t, game.O, conn2.frames[0].Symbol)

	for _, conn := range []*fakeConn{conn1, conn2} {
		ready := conn.last(t)
		assert.Equal(t, proto.TypeGameReady, ready.Type)
		require.NotNil(t, ready.Board)
		assert.Equal(t, game.Board{}, *ready.Board, "game_ready carries an all-empty board")
		assert.Equal(t, game.X, ready.Turn)
	}
}

func TestThirdJoinGetsErrorWithoutMutation(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	c2, conn2 := attach(h, "p2")
	c3, conn3 := attach(h, "p3")

	join(h, c1, "FULL")
	join(h, c2, "FULL")
	join(h, c3, "FULL")

	require.Len(t, conn3.frames, 1)
	assert.Equal(t, proto.TypeError, conn3.frames[0].Type)
	assert.Equal(t, "room is full", conn3.frames[0].Message)
	assert.Empty(t, c3.room)

	// Turn order is unchanged: a valid X move still goes through and
	// only the two seated participants hear about it.
	frames1, frames2, frames3 := len(conn1.frames), len(conn2.frames), len(conn3.frames)
	move(h, c1, "FULL", 0, game.X)

	assert.Len(t, conn1.frames, frames1+1)
	assert.Len(t, conn2.frames, frames2+1)
	assert.Len(t, conn3.frames, frames3, "the rejected joiner receives no broadcasts")
	assert.Equal(t, proto.TypeMoveMade, conn1.last(t).Type)
}

func TestMoveBroadcastsFullState(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	c2, conn2 := attach(h, "p2")
	join(h, c1, "GAME")
	join(h, c2, "GAME")

	move(h, c1, "GAME", 0, game.X)

	for _, conn := range []*fakeConn{conn1, conn2} {
		msg := conn.last(t)
		assert.Equal(t, proto.TypeMoveMade, msg.Type)
		require.NotNil(t, msg.Board)
		assert.Equal(t, game.X, msg.Board[0])
		assert.Equal(t, game.O, msg.Turn)
	}
}

func TestOutOfTurnMoveSilentlyDropped(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	c2, conn2 := attach(h, "p2")
	join(h, c1, "GAME")
	join(h, c2, "GAME")
	frames1, frames2 := len(conn1.frames), len(conn2.frames)

	move(h, c2, "GAME", 0, game.O)

	assert.Len(t, conn1.frames, frames1, "no move_made broadcast")
	assert.Len(t, conn2.frames, frames2, "no error reply either")
	rm, _ := h.registry.Get("GAME")
	assert.Equal(t, game.Board{}, rm.Board)
}

func TestOccupiedCellMoveSilentlyDropped(t *testing.T) {
	h := newTestHub()
	c1, _ := attach(h, "p1")
	c2, conn2 := attach(h, "p2")
	join(h, c1, "GAME")
	join(h, c2, "GAME")

	move(h, c1, "GAME", 0, game.X)
	frames2 := len(conn2.frames)

	move(h, c2, "GAME", 0, game.O)

	assert.Len(t, conn2.frames, frames2)
	rm, _ := h.registry.Get("GAME")
	assert.Equal(t, game.X, rm.Board[0])
	assert.Equal(t, game.O, rm.Turn)
}

func TestMoveOnUnknownRoomDropped(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")

	move(h, c1, "GHOST", 0, game.X)

	assert.Empty(t, conn1.frames)
	_, ok := h.registry.Get("GHOST")
	assert.False(t, ok, "moves must not create rooms")
}

func TestResetUnknownRoomIsNoop(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")

	deliver(h, c1, proto.ClientMessage{Type: proto.TypeResetGame, Room: "GHOST"})

	assert.Empty(t, conn1.frames)
}

// The sequence from the protocol description: join, join, move, a
// rejected occupied-cell move, a second move, then a reset.
func TestProtocolSequence(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	c2, _ := attach(h, "p2")

	join(h, c1, "A")
	join(h, c2, "A")
	assert.Equal(t, proto.TypeGameReady, conn1.last(t).Type)

	move(h, c1, "A", 0, game.X)
	msg := conn1.last(t)
	assert.Equal(t, game.X, msg.Board[0])
	assert.Equal(t, game.O, msg.Turn)

	move(h, c2, "A", 0, game.O) // occupied, dropped
	assert.Equal(t, proto.TypeMoveMade, conn1.last(t).Type)
	assert.Equal(t, game.O, conn1.last(t).Turn)

	move(h, c2, "A", 4, game.O)
	msg = conn1.last(t)
	assert.Equal(t, game.O, msg.Board[4])
	assert.Equal(t, game.X, msg.Turn)

	deliver(h, c1, proto.ClientMessage{Type: proto.TypeResetGame, Room: "A"})
	msg = conn1.last(t)
	assert.Equal(t, proto.TypeGameReset, msg.Type)
	assert.Equal(t, game.Board{}, *msg.Board)
	assert.Equal(t, game.X, msg.Turn)
}

func TestMalformedAndInvalidFramesDropped(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")

	h.handleMessage(c1, []byte("{not json"))
	h.handleMessage(c1, []byte(`{"type":"make_move","room":"A","index":42,"symbol":"X"}`))
	h.handleMessage(c1, []byte(`{"type":"shout","room":"A"}`))

	assert.Empty(t, conn1.frames)
	assert.Equal(t, 0, h.registry.Len())
}

func TestStatsRecording(t *testing.T) {
	stats := &memStats{}
	h := newTestHub(WithStats(stats))
	c1, _ := attach(h, "p1")
	c2, _ := attach(h, "p2")
	join(h, c1, "S")
	join(h, c2, "S")
	assert.Equal(t, 1, stats.started)

	// X wins on the top row.
	move(h, c1, "S", 0, game.X)
	move(h, c2, "S", 3, game.O)
	move(h, c1, "S", 1, game.X)
	move(h, c2, "S", 4, game.O)
	assert.Empty(t, stats.results, "no result before the board is terminal")
	move(h, c1, "S", 2, game.X)

	require.Len(t, stats.results, 1)
	assert.Equal(t, game.X, stats.results[0].Winner)
	assert.Equal(t, [3]int{0, 1, 2}, stats.results[0].Line)
}

func TestDisconnectDefaultKeepsRoom(t *testing.T) {
	h := newTestHub()
	c1, conn1 := attach(h, "p1")
	join(h, c1, "STAY")

	h.handleDisconnect(c1)

	assert.True(t, conn1.closed)
	assert.Equal(t, 1, h.registry.Len(), "rooms are never evicted by default")
	rm, _ := h.registry.Get("STAY")
	assert.Len(t, rm.Participants, 1, "the seat stays occupied")
}

func TestDisconnectWithEvictionDropsEmptyRoom(t *testing.T) {
	h := newTestHub(WithEviction())
	c1, _ := attach(h, "p1")
	c2, _ := attach(h, "p2")
	join(h, c1, "BYE")
	join(h, c2, "BYE")

	h.handleDisconnect(c1)
	assert.Equal(t, 1, h.registry.Len(), "room survives while a participant remains")

	h.handleDisconnect(c2)
	assert.Equal(t, 0, h.registry.Len())
}
