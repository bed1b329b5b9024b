package client

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gridrelay/tictactoe/internal/game"
	"github.com/gridrelay/tictactoe/pkg/proto"
)

// State is the client session's position in its lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingAssignment
	AwaitingOpponent
	Playing
	GameOver
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingAssignment:
		return "awaiting_assignment"
	case AwaitingOpponent:
		return "awaiting_opponent"
	case Playing:
		return "playing"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

var (
	ErrNotConnected = errors.New("session is not connected")
	ErrNotPlaying   = errors.New("game is not in progress")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")
)

// EventType names the session events surfaced to the UI.
type EventType string

const (
	EventAssigned EventType = "assigned"
	EventReady    EventType = "ready"
	EventMove     EventType = "move"
	EventReset    EventType = "reset"
	EventError    EventType = "error"
	EventClosed   EventType = "closed"
)

// Event is one state change pushed by the server, reduced to what the
// UI needs to render.
type Event struct {
	Type    EventType
	Symbol  game.Mark
	Board   game.Board
	Turn    game.Mark
	Result  game.Result
	Message string
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRoomCode generates a short shareable room code. Existence is not
// checked: colliding with a live room makes the creator that room's
// second participant.
func NewRoomCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(code)
}

// Session is the client-side state machine. It mirrors the server's
// view of the room: every pushed board and turn is adopted
// unconditionally, with no local prediction. The session's own state
// only gates what the local player is allowed to send.
type Session struct {
	conn   *websocket.Conn
	events chan Event

	mu       sync.Mutex
	state    State
	roomCode string
	symbol   game.Mark
	board    game.Board
	turn     game.Mark
	result   game.Result
}

// Dial opens a websocket connection to the relay and starts the read
// loop. The session starts in Connecting and advances on Join.
func Dial(ctx context.Context, url string) (*Session, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &Session{
		conn:   conn,
		events: make(chan Event, 8),
		state:  Connecting,
	}
	go s.readLoop()
	return s, nil
}

// CreateRoom generates a code and joins it, returning the shareable
// code.
func (s *Session) CreateRoom() (string, error) {
	code := NewRoomCode()
	return code, s.Join(code)
}

// Join sends the join request and moves to AwaitingAssignment.
func (s *Session) Join(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	if s.state != Connecting {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.roomCode = code
	s.state = AwaitingAssignment
	s.mu.Unlock()

	return s.conn.WriteJSON(proto.ClientMessage{Type: proto.TypeJoinRoom, Room: code})
}

// Move forwards a cell click. The checks here are a first filter for
// the UI; the authoritative check is the server's, and the displayed
// board only changes when the broadcast comes back.
func (s *Session) Move(index int) error {
	s.mu.Lock()
	switch {
	case s.state != Playing:
		s.mu.Unlock()
		return ErrNotPlaying
	case s.turn != s.symbol:
		s.mu.Unlock()
		return ErrNotYourTurn
	case index < 0 || index >= game.Cells:
		s.mu.Unlock()
		return ErrInvalidCell
	case s.board[index] != game.None:
		s.mu.Unlock()
		return ErrCellOccupied
	}
	code, symbol := s.roomCode, s.symbol
	s.mu.Unlock()

	return s.conn.WriteJSON(proto.ClientMessage{
		Type:   proto.TypeMakeMove,
		Room:   code,
		Index:  index,
		Symbol: string(symbol),
	})
}

// Reset asks the relay to clear the board.
func (s *Session) Reset() error {
	s.mu.Lock()
	code := s.roomCode
	connected := s.state == Playing || s.state == GameOver
	s.mu.Unlock()

	if !connected {
		return ErrNotPlaying
	}
	return s.conn.WriteJSON(proto.ClientMessage{Type: proto.TypeResetGame, Room: code})
}

// Close tears down the connection. No reconnection is attempted; a
// rejoin after this is indistinguishable from a fresh join.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Events returns the stream of server-driven state changes. The
// channel closes when the connection drops.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Symbol() game.Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

func (s *Session) Board() game.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) Turn() game.Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) Result() game.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) RoomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomCode
}

// readLoop applies every server push to the local view and emits an
// event for the UI. It is the only goroutine reading the connection.
func (s *Session) readLoop() {
	defer func() {
		s.mu.Lock()
		s.state = Disconnected
		s.mu.Unlock()
		s.events <- Event{Type: EventClosed}
		close(s.events)
	}()

	for {
		var msg proto.ServerMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		s.apply(&msg)
	}
}

func (s *Session) apply(msg *proto.ServerMessage) {
	s.mu.Lock()

	event := Event{Turn: msg.Turn}
	if msg.Board != nil {
		s.board = *msg.Board
		s.turn = msg.Turn
		event.Board = s.board
	}

	switch msg.Type {
	case proto.TypePlayerAssignment:
		s.symbol = msg.Symbol
		s.state = AwaitingOpponent
		event.Type = EventAssigned
		event.Symbol = msg.Symbol

	case proto.TypeGameReady:
		s.result = game.Result{}
		s.state = Playing
		event.Type = EventReady

	case proto.TypeMoveMade:
		// The relay sends raw board and turn only; win and draw are
		// re-derived locally.
		s.result = game.Evaluate(s.board)
		if s.result.Over() {
			s.state = GameOver
		}
		event.Type = EventMove
		event.Result = s.result

	case proto.TypeGameReset:
		s.result = game.Result{}
		s.state = Playing
		event.Type = EventReset

	case proto.TypeError:
		event.Type = EventError
		event.Message = msg.Message

	default:
		s.mu.Unlock()
		return
	}

	s.mu.Unlock()
	s.events <- event
}
