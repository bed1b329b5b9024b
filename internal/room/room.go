package room

import (
	"errors"

	"github.com/gridrelay/tictactoe/internal/game"
)

// MaxParticipants is the hard cap on connections per room.
const MaxParticipants = 2

var (
	ErrRoomFull     = errors.New("room is full")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrNotYourTurn  = errors.New("it's not your turn")
)

// Conn abstracts the write side of a participant's connection so rooms
// can be exercised with in-memory fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Participant is one connection seated in a room. Identity is
// connection-scoped; nothing survives the connection.
type Participant struct {
	ID     string
	Symbol game.Mark
	Conn   Conn
}

// Room pairs up to two participants around one shared board. The first
// joiner is always X, the second O. All mutation happens on the relay
// loop goroutine; Room itself is not safe for concurrent use.
type Room struct {
	Code         string
	Participants []*Participant
	Board        game.Board
	Turn         game.Mark
}

func newRoom(code string) *Room {
	return &Room{
		Code:         code,
		Participants: make([]*Participant, 0, MaxParticipants),
		Turn:         game.X,
	}
}

// Join seats a participant and assigns their symbol. A join attempt on
// a full room fails without mutating anything.
func (r *Room) Join(p *Participant) (game.Mark, error) {
	if len(r.Participants) >= MaxParticipants {
		return game.None, ErrRoomFull
	}

	symbol := game.X
	if len(r.Participants) == 1 {
		symbol = game.O
	}
	p.Symbol = symbol
	r.Participants = append(r.Participants, p)
	return symbol, nil
}

// Ready reports whether both seats are taken.
func (r *Room) Ready() bool {
	return len(r.Participants) == MaxParticipants
}

// Move writes symbol into the cell and flips the turn marker. The
// claimed symbol is checked against the turn order and the cell against
// occupancy; it is not bound to the participant's assigned symbol.
func (r *Room) Move(index int, symbol game.Mark) error {
	if index < 0 || index >= game.Cells {
		return ErrInvalidCell
	}
	if r.Turn != symbol {
		return ErrNotYourTurn
	}
	if r.Board[index] != game.None {
		return ErrCellOccupied
	}

	r.Board[index] = symbol
	r.Turn = game.Opponent(symbol)
	return nil
}

// Reset clears the board and gives the turn back to X. Participants
// keep their seats and symbols.
func (r *Room) Reset() {
	r.Board = game.Board{}
	r.Turn = game.X
}

// Leave removes the participant with the given ID. It reports whether
// the room is empty afterwards.
func (r *Room) Leave(id string) bool {
	for i, p := range r.Participants {
		if p.ID == id {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			break
		}
	}
	return len(r.Participants) == 0
}
