package proto

import "github.com/gridrelay/tictactoe/internal/game"

// Client to server message types.
const (
	TypeJoinRoom  = "join_room"
	TypeMakeMove  = "make_move"
	TypeResetGame = "reset_game"
)

// Server to client message types.
const (
	TypePlayerAssignment = "player_assignment"
	TypeGameReady        = "game_ready"
	TypeMoveMade         = "move_made"
	TypeGameReset        = "game_reset"
	TypeError            = "error"
)

// ClientMessage represents a message from the client to the server.
// Index and Symbol are only meaningful for make_move.
type ClientMessage struct {
	Type   string `json:"type" validate:"required,oneof=join_room make_move reset_game"`
	Room   string `json:"room" validate:"required,max=32"`
	Index  int    `json:"index" validate:"min=0,max=8"`
	Symbol string `json:"symbol,omitempty" validate:"omitempty,oneof=X O"`
}

// ServerMessage represents a message from the server to the client.
// player_assignment and error are unicast; game_ready, move_made and
// game_reset carry the complete board and are broadcast to the room.
type ServerMessage struct {
	Type    string      `json:"type"`
	Symbol  game.Mark   `json:"symbol,omitempty"`
	Board   *game.Board `json:"board,omitempty"`
	Turn    game.Mark   `json:"turn,omitempty"`
	Message string      `json:"message,omitempty"`
}
