package domain

// Line is a set of three cell indices that wins when one mark holds all of them.
type Line [3]int

// WinningLines lists every row, column and diagonal.
var WinningLines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Contains reports whether index is part of the line.
func (l Line) Contains(index int) bool {
	return l[0] == index || l[1] == index || l[2] == index
}

// RoundResult describes how a round ended.
type RoundResult struct {
	Tie    bool
	Winner Cell
	Line   Line
}

// Flow owns the win check, the active mode and end-of-round resets.
type Flow struct {
	Board   *Board
	Players *Players

	mode    Mode
	line    Line
	matched bool
}

// NewFlow returns a flow over a fresh board and the default players.
func NewFlow(mode Mode) *Flow {
	if mode != TwoPlayers {
		mode = OnePlayer
	}
	return &Flow{Board: &Board{}, Players: NewPlayers(), mode: mode}
}

// Mode returns the active mode.
func (f *Flow) Mode() Mode { return f.mode }

// Current returns the player whose turn it is.
func (f *Flow) Current() *Player { return f.Players.Current(f.mode) }

// CheckWin reports whether occupied contains a complete line and remembers
// the first one found. occupied must hold the indices of a single mark.
func (f *Flow) CheckWin(occupied []int) bool {
	f.matched = false
	if len(occupied) < 3 {
		return false
	}
	var held [Size]bool
	for _, i := range occupied {
		if i >= 0 && i < Size {
			held[i] = true
		}
	}
	for _, ln := range WinningLines {
		if held[ln[0]] && held[ln[1]] && held[ln[2]] {
			f.line = ln
			f.matched = true
			return true
		}
	}
	return false
}

// WinningLine returns the line found by the last successful CheckWin.
func (f *Flow) WinningLine() (Line, bool) {
	return f.line, f.matched
}

// HasWon checks the board for a complete line of mark.
func (f *Flow) HasWon(mark Cell) bool {
	return f.CheckWin(f.Board.IndicesWithMark(mark))
}

// IsTie reports a full board where the mark just placed holds no line.
func (f *Flow) IsTie(last Cell) bool {
	return f.Board.Full() && !f.HasWon(last)
}

// EndRound clears the board and gives the turn back to the first player.
func (f *Flow) EndRound() {
	f.Board.Reset()
	f.Players.ResetTurn()
	f.matched = false
}

// ToggleMode ends the current round and switches to the other mode.
func (f *Flow) ToggleMode() Mode {
	f.EndRound()
	f.mode = f.mode.Other()
	return f.mode
}
