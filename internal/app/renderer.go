package app

import "github.com/jaminalder/tictactoe-rounds/internal/domain"

// Renderer is the display side of a session. Calls arrive in order, one at a
// time, while the session holds its lock; TransitionDone is the only session
// method an implementation may call from inside them.
type Renderer interface {
	// ShowMark draws mark on a cell and starts its transition. The display
	// reports the end of that transition with Session.TransitionDone.
	ShowMark(index int, mark domain.Cell)
	// HighlightWin flags the winning line and dims every cell the winner does not hold.
	HighlightWin(winner domain.Cell, line domain.Line)
	HighlightTie()
	RenderScoreboard(mode domain.Mode, players [2]domain.Player)
	ClearBoard()
}

type nopRenderer struct{}

func (nopRenderer) ShowMark(int, domain.Cell) {}
func (nopRenderer) HighlightWin(domain.Cell, domain.Line) {}
func (nopRenderer) HighlightTie() {}
func (nopRenderer) RenderScoreboard(domain.Mode, [2]domain.Player) {}
func (nopRenderer) ClearBoard() {}
