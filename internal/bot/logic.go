package bot

import (
	"math/rand/v2"

	"github.com/gridrelay/tictactoe/internal/game"
)

// Difficulty levels supported by the calculator.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// BestMove determines the bot's next move based on the specified
// difficulty. It returns -1 when the board has no empty cell.
func BestMove(board game.Board, botMark game.Mark, difficulty string) int {
	switch difficulty {
	case Easy:
		return easyMove(board)
	case Medium:
		return mediumMove(board, botMark)
	case Hard:
		return hardMove(board, botMark)
	default:
		return hardMove(board, botMark)
	}
}

// easyMove makes a completely random move.
func easyMove(board game.Board) int {
	available := board.Empty()
	if len(available) == 0 {
		return -1
	}
	return available[rand.IntN(len(available))]
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, botMark game.Mark) int {
	if cell, ok := findWinningMove(board, botMark); ok {
		return cell
	}
	if cell, ok := findWinningMove(board, game.Opponent(botMark)); ok {
		return cell
	}
	return easyMove(board)
}

// hardMove plays perfectly: it runs an exhaustive minimax over the
// remaining empty cells and picks the highest-scoring one. Depth-aware
// scoring makes it prefer faster wins and slower losses. Two hard bots
// playing each other always draw.
func hardMove(board game.Board, botMark game.Mark) int {
	best := -1
	bestScore := -100
	for _, cell := range board.Empty() {
		board[cell] = botMark
		score := minimax(board, game.Opponent(botMark), botMark, 1)
		board[cell] = game.None
		if score > bestScore {
			bestScore = score
			best = cell
		}
	}
	return best
}

// minimax scores the position for the searching player: 10-depth for a
// win, depth-10 for a loss, 0 for a draw. The branching factor is at
// most 9 and depth at most 9, so no pruning is needed.
func minimax(board game.Board, turn, searching game.Mark, depth int) int {
	result := game.Evaluate(board)
	switch {
	case result.Winner == searching:
		return 10 - depth
	case result.Winner != game.None:
		return depth - 10
	case result.Draw:
		return 0
	}

	if turn == searching {
		best := -100
		for _, cell := range board.Empty() {
			board[cell] = turn
			if score := minimax(board, game.Opponent(turn), searching, depth+1); score > best {
				best = score
			}
			board[cell] = game.None
		}
		return best
	}

	best := 100
	for _, cell := range board.Empty() {
		board[cell] = turn
		if score := minimax(board, game.Opponent(turn), searching, depth+1); score < best {
			best = score
		}
		board[cell] = game.None
	}
	return best
}

// findWinningMove checks if a player has a potential winning move
// (two in a line with an empty third cell).
func findWinningMove(board game.Board, mark game.Mark) (int, bool) {
	for _, line := range game.Lines {
		marks := 0
		empty := -1
		for _, cell := range line {
			switch board[cell] {
			case mark:
				marks++
			case game.None:
				empty = cell
			}
		}
		if marks == 2 && empty != -1 {
			return empty, true
		}
	}
	return -1, false
}
