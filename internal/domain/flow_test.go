package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to apply alternating X/O placements through the flow
func playMoves(t *testing.T, f *Flow, moves []int) (RoundResult, bool) {
	t.Helper()
	for i, idx := range moves {
		p := f.Current()
		require.NoError(t, f.Board.Place(p.Mark, idx), "move %d (%d)", i, idx)
		if f.HasWon(p.Mark) {
			line, _ := f.WinningLine()
			return RoundResult{Winner: p.Mark, Line: line}, true
		}
		if f.IsTie(p.Mark) {
			return RoundResult{Tie: true}, true
		}
		f.Players.SwitchTurn()
	}
	return RoundResult{}, false
}

func TestCheckWinEveryLine(t *testing.T) {
	f := NewFlow(TwoPlayers)
	for _, ln := range WinningLines {
		assert.True(t, f.CheckWin(ln[:]), "line %v", ln)
		got, ok := f.WinningLine()
		require.True(t, ok)
		assert.Equal(t, ln, got)
	}
}

func TestCheckWinRejectsSmallSets(t *testing.T) {
	f := NewFlow(TwoPlayers)
	assert.False(t, f.CheckWin(nil))
	assert.False(t, f.CheckWin([]int{0, 1}))
	_, ok := f.WinningLine()
	assert.False(t, ok)
}

func TestCheckWinWithoutLine(t *testing.T) {
	f := NewFlow(TwoPlayers)
	assert.False(t, f.CheckWin([]int{0, 1, 3, 5, 7}))
	assert.True(t, f.CheckWin([]int{1, 3, 4, 5, 8}))
	line, _ := f.WinningLine()
	assert.Equal(t, Line{3, 4, 5}, line)
}

// Every subset of the board is a win iff it contains one of the 8 lines.
func TestCheckWinMatchesLineContainment(t *testing.T) {
	f := NewFlow(TwoPlayers)
	for mask := 0; mask < 1<<Size; mask++ {
		var set []int
		for i := 0; i < Size; i++ {
			if mask&(1<<i) != 0 {
				set = append(set, i)
			}
		}
		want := false
		for _, ln := range WinningLines {
			if mask&(1<<ln[0]) != 0 && mask&(1<<ln[1]) != 0 && mask&(1<<ln[2]) != 0 {
				want = true
				break
			}
		}
		require.Equal(t, want, f.CheckWin(set), "set %v", set)
	}
}

func TestTopRowWinForX(t *testing.T) {
	f := NewFlow(TwoPlayers)
	res, over := playMoves(t, f, []int{0, 3, 1, 4, 2})
	require.True(t, over)
	assert.False(t, res.Tie)
	assert.Equal(t, X, res.Winner)
	assert.Equal(t, Line{0, 1, 2}, res.Line)
}

func TestTieOnFullBoard(t *testing.T) {
	f := NewFlow(TwoPlayers)
	// x o x / x o o / o x x
	res, over := playMoves(t, f, []int{0, 1, 2, 4, 3, 5, 7, 6, 8})
	require.True(t, over)
	assert.True(t, res.Tie)
	assert.False(t, f.HasWon(X))
	assert.False(t, f.HasWon(O))
}

func TestWinOnLastCellIsNotATie(t *testing.T) {
	f := NewFlow(TwoPlayers)
	// x o x / o x o / o x x, X completes the diagonal with the ninth mark
	res, over := playMoves(t, f, []int{0, 1, 2, 3, 4, 5, 7, 6, 8})
	require.True(t, over)
	assert.False(t, res.Tie)
	assert.Equal(t, Line{0, 4, 8}, res.Line)
}

func TestTurnAfterPlacements(t *testing.T) {
	f := NewFlow(OnePlayer)
	_, over := playMoves(t, f, []int{4, 0, 8})
	require.False(t, over)
	assert.Equal(t, uint64(3), f.Players.Turn())
	assert.Equal(t, f.Players.Seats(OnePlayer)[1].Name, f.Current().Name)
}

func TestEndRoundResetsBoardAndTurn(t *testing.T) {
	f := NewFlow(TwoPlayers)
	playMoves(t, f, []int{0, 3, 1, 4, 2})

	f.EndRound()

	assert.Equal(t, Board{}, *f.Board)
	assert.Equal(t, uint64(0), f.Players.Turn())
	_, ok := f.WinningLine()
	assert.False(t, ok)
}

func TestToggleModeEndsRound(t *testing.T) {
	f := NewFlow(OnePlayer)
	playMoves(t, f, []int{0, 4})

	mode := f.ToggleMode()

	assert.Equal(t, TwoPlayers, mode)
	assert.Equal(t, TwoPlayers, f.Mode())
	assert.Len(t, f.Board.EmptyIndices(), Size)
	assert.Equal(t, uint64(0), f.Players.Turn())
}
