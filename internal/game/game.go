package game

// Mark represents the mark of a player (X, O) or an empty cell.
type Mark string

const (
	None Mark = ""
	X    Mark = "X"
	O    Mark = "O"
)

// Cells is the number of cells on the board.
const Cells = 9

// Board is the 3x3 grid stored row-major: index 0 is the top-left
// cell, index 8 the bottom-right.
type Board [Cells]Mark

// Lines holds the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Result is the outcome of evaluating a board position.
type Result struct {
	Winner Mark   `json:"winner,omitempty"`
	Line   [3]int `json:"line,omitempty"`
	Draw   bool   `json:"draw,omitempty"`
}

// Over reports whether the position is terminal.
func (r Result) Over() bool {
	return r.Winner != None || r.Draw
}

// Evaluate scans the 8 winning triples in fixed order and returns the
// first one whose three cells are non-empty and identical, tagged with
// the triple's indices. If no triple matches and the board is full the
// result is a draw; otherwise the game continues.
func Evaluate(b Board) Result {
	for _, line := range Lines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return Result{Winner: a, Line: line}
		}
	}
	if b.Full() {
		return Result{Draw: true}
	}
	return Result{}
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Empty returns the indices of unoccupied cells.
func (b Board) Empty() []int {
	cells := make([]int, 0, Cells)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// Opponent returns the other player's mark.
func Opponent(m Mark) Mark {
	if m == X {
		return O
	}
	return X
}
