package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

// recorder logs renderer calls. With auto set, every mark finishes its
// transition as soon as it is shown.
type recorder struct {
	mu    sync.Mutex
	calls []string
	auto  *Session
}

func (r *recorder) log(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) ShowMark(index int, mark domain.Cell) {
	r.log("mark %d %s", index, mark)
	if r.auto != nil {
		r.auto.TransitionDone(index)
	}
}

func (r *recorder) HighlightWin(winner domain.Cell, line domain.Line) {
	r.log("win %s %v", winner, line)
}
func (r *recorder) HighlightTie() { r.log("tie") }
func (r *recorder) RenderScoreboard(mode domain.Mode, players [2]domain.Player) {
	r.log("scoreboard %s %d-%d-%d", mode, players[0].Score.Wins, players[1].Score.Wins, players[1].Score.Ties)
}
func (r *recorder) ClearBoard() { r.log("clear") }

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Last() string {
	c := r.Calls()
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

func newAutoSession(t *testing.T, opts ...Option) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewSession("test", rec, opts...)
	rec.auto = s
	return s, rec
}

func clickAll(t *testing.T, s *Session, cells ...int) {
	t.Helper()
	for i, c := range cells {
		require.NoError(t, s.Click(context.Background(), c), "click %d on cell %d", i, c)
	}
}

func waitLatched(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.Snapshot().CanPlay }, time.Second, time.Millisecond)
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession("s1", nil)
	snap := s.Snapshot()

	assert.Equal(t, "s1", snap.ID)
	assert.Equal(t, domain.OnePlayer, snap.Mode)
	assert.Equal(t, AwaitingInput, snap.State)
	assert.True(t, snap.CanPlay)
	assert.Equal(t, domain.Board{}, snap.Board)
	assert.Equal(t, uint64(0), snap.Turn)
	assert.Equal(t, "player", snap.Current.Name)
}

func TestTwoPlayerWinOnTopRow(t *testing.T) {
	s, rec := newAutoSession(t, WithStartMode(domain.TwoPlayers))

	clickAll(t, s, 0, 3, 1, 4, 2)

	snap := s.Snapshot()
	assert.Equal(t, RoundOver, snap.State)
	assert.Equal(t, domain.Board{}, snap.Board)
	assert.Equal(t, uint64(0), snap.Turn)
	assert.Equal(t, domain.Score{Wins: 1}, snap.Players[0].Score)
	assert.Equal(t, domain.Score{Losses: 1}, snap.Players[1].Score)

	calls := rec.Calls()
	assert.Equal(t, []string{
		"mark 0 x", "mark 3 o", "mark 1 x", "mark 4 o", "mark 2 x",
		"win x [0 1 2]",
		"scoreboard two players 1-0-0",
	}, calls)
}

func TestTwoPlayerTie(t *testing.T) {
	s, rec := newAutoSession(t, WithStartMode(domain.TwoPlayers))

	clickAll(t, s, 0, 1, 2, 4, 3, 5, 7, 6, 8)

	snap := s.Snapshot()
	assert.Equal(t, RoundOver, snap.State)
	assert.Equal(t, domain.Score{Ties: 1}, snap.Players[0].Score)
	assert.Equal(t, domain.Score{Ties: 1}, snap.Players[1].Score)
	assert.Contains(t, rec.Calls(), "tie")
	assert.Equal(t, "scoreboard two players 0-0-1", rec.Last())
}

func TestTurnAlternatesBetweenPlacements(t *testing.T) {
	s, _ := newAutoSession(t, WithStartMode(domain.TwoPlayers))
	players := s.Snapshot().Players

	for n, cell := range []int{4, 0, 8, 2} {
		snap := s.Snapshot()
		require.Equal(t, players[n%2].Name, snap.Current.Name, "after %d placements", n)
		require.NoError(t, s.Click(context.Background(), cell))
	}
	assert.Equal(t, uint64(4), s.Snapshot().Turn)
}

func TestOnePlayerComputerReplies(t *testing.T) {
	var seen []int
	pick := func(n int) int {
		seen = append(seen, n)
		return n - 1
	}
	s, rec := newAutoSession(t, WithPicker(pick))

	require.NoError(t, s.Click(context.Background(), 0))

	snap := s.Snapshot()
	assert.Equal(t, []int{8}, seen, "computer picks among the 8 empty cells")
	assert.Equal(t, domain.X, snap.Board[0])
	assert.Equal(t, domain.O, snap.Board[8], "last empty cell is attributed to the computer")
	assert.Equal(t, uint64(2), snap.Turn)
	assert.Equal(t, "player", snap.Current.Name)
	assert.Equal(t, AwaitingInput, snap.State)
	assert.Equal(t, []string{"mark 0 x", "mark 8 o"}, rec.Calls())
}

func TestOnePlayerComputerCanWin(t *testing.T) {
	// computer always takes the first empty cell
	s, rec := newAutoSession(t, WithPicker(func(int) int { return 0 }))

	// x:4 o:0, x:8 o:1, x:6 o:2 -> computer holds the top row
	clickAll(t, s, 4, 8, 6)

	snap := s.Snapshot()
	assert.Equal(t, RoundOver, snap.State)
	assert.Equal(t, domain.Score{Wins: 1}, snap.Players[1].Score)
	assert.Equal(t, domain.Score{Losses: 1}, snap.Players[0].Score)
	assert.Contains(t, rec.Calls(), "win o [0 1 2]")
}

func TestClickAfterRoundOnlyClearsBoard(t *testing.T) {
	s, rec := newAutoSession(t, WithStartMode(domain.TwoPlayers))
	clickAll(t, s, 0, 3, 1, 4, 2)

	require.NoError(t, s.Click(context.Background(), 5))

	snap := s.Snapshot()
	assert.Equal(t, AwaitingInput, snap.State)
	assert.Equal(t, domain.Board{}, snap.Board)
	assert.Equal(t, "clear", rec.Last())

	// the next click is a move again
	require.NoError(t, s.Click(context.Background(), 5))
	assert.Equal(t, domain.X, s.Snapshot().Board[5])
}

func TestInputLatchedDuringTransition(t *testing.T) {
	rec := &recorder{}
	s := NewSession("latch", rec, WithStartMode(domain.TwoPlayers), WithTransitionTimeout(0))

	done := make(chan error, 1)
	go func() { done <- s.Click(context.Background(), 4) }()
	waitLatched(t, s)

	assert.Equal(t, AnimatingTransition, s.Snapshot().State)
	assert.ErrorIs(t, s.Click(context.Background(), 0), ErrInputLatched)
	assert.ErrorIs(t, s.Click(context.Background(), 4), ErrInputLatched)
	assert.False(t, s.TransitionDone(0), "transition is keyed to cell 4")

	assert.True(t, s.TransitionDone(4))
	assert.False(t, s.TransitionDone(4), "second report is ignored")
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.True(t, snap.CanPlay)
	assert.Equal(t, uint64(1), snap.Turn)
	assert.Equal(t, []int{4}, snap.Board.IndicesWithMark(domain.X))
	assert.False(t, s.TransitionDone(4), "nothing is pending anymore")
}

func TestInvalidClicks(t *testing.T) {
	s, _ := newAutoSession(t, WithStartMode(domain.TwoPlayers))
	require.NoError(t, s.Click(context.Background(), 0))

	err := s.Click(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrCellOccupied)
	err = s.Click(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)

	snap := s.Snapshot()
	assert.True(t, snap.CanPlay)
	assert.Equal(t, uint64(1), snap.Turn)
}

func TestToggleModeMidRound(t *testing.T) {
	rec := &recorder{}
	s := NewSession("toggle", rec, WithTransitionTimeout(0))

	done := make(chan error, 1)
	go func() { done <- s.Click(context.Background(), 4) }()
	waitLatched(t, s)

	mode := s.ToggleMode()
	assert.Equal(t, domain.TwoPlayers, mode)
	assert.ErrorIs(t, <-done, ErrRoundAborted)

	snap := s.Snapshot()
	assert.Equal(t, domain.TwoPlayers, snap.Mode)
	assert.Equal(t, domain.Board{}, snap.Board)
	assert.Equal(t, uint64(0), snap.Turn)
	assert.True(t, snap.CanPlay)
	assert.Equal(t, AwaitingInput, snap.State)
	assert.False(t, s.TransitionDone(4))
	assert.Equal(t, []string{"mark 4 x", "scoreboard two players 0-0-0", "clear"}, rec.Calls())
}

func TestToggleModeKeepsScoresPerMode(t *testing.T) {
	s, _ := newAutoSession(t, WithStartMode(domain.TwoPlayers))
	clickAll(t, s, 0, 3, 1, 4, 2)

	s.ToggleMode()
	assert.Equal(t, domain.Score{}, s.Snapshot().Players[0].Score)

	s.ToggleMode()
	assert.Equal(t, domain.Score{Wins: 1}, s.Snapshot().Players[0].Score)
}

func TestToggleModeWithScoreReset(t *testing.T) {
	s, _ := newAutoSession(t, WithStartMode(domain.TwoPlayers), WithScoreReset(true))
	clickAll(t, s, 0, 3, 1, 4, 2)

	s.ToggleMode()
	s.ToggleMode()
	assert.Equal(t, domain.Score{}, s.Snapshot().Players[0].Score)
}

func TestTransitionTimeoutContinuesRound(t *testing.T) {
	s := NewSession("slow", &recorder{}, WithStartMode(domain.TwoPlayers), WithTransitionTimeout(10*time.Millisecond))

	require.NoError(t, s.Click(context.Background(), 0))

	snap := s.Snapshot()
	assert.True(t, snap.CanPlay)
	assert.Equal(t, uint64(1), snap.Turn)
}

func TestCanceledWaitAbandonsRound(t *testing.T) {
	rec := &recorder{}
	s := NewSession("cancel", rec, WithTransitionTimeout(0))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Click(ctx, 2) }()
	waitLatched(t, s)
	cancel()

	err := <-done
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	snap := s.Snapshot()
	assert.True(t, snap.CanPlay)
	assert.Equal(t, domain.Board{}, snap.Board)
	assert.Equal(t, "clear", rec.Last())
}

func TestStartDrawsScoreboardAndBoard(t *testing.T) {
	rec := &recorder{}
	s := NewSession("start", rec)
	s.Start()
	assert.Equal(t, []string{"scoreboard one player 0-0-0", "clear"}, rec.Calls())
}

func TestCloseAbortsPendingMove(t *testing.T) {
	s := NewSession("close", &recorder{}, WithTransitionTimeout(0))
	done := make(chan error, 1)
	go func() { done <- s.Click(context.Background(), 1) }()
	waitLatched(t, s)

	s.Close()
	assert.ErrorIs(t, <-done, ErrRoundAborted)
}

func TestStartClickPlacesWithoutWaiting(t *testing.T) {
	rec := &recorder{}
	s := NewSession("start-click", rec, WithStartMode(domain.TwoPlayers), WithTransitionTimeout(0))

	m, err := s.StartClick(4)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 4, m.Cell())
	assert.Equal(t, domain.X, s.Snapshot().Board[4])

	_, err = s.StartClick(5)
	assert.ErrorIs(t, err, ErrInputLatched)
	assert.Equal(t, domain.Empty, s.Snapshot().Board[5])

	require.True(t, s.TransitionDone(4))
	require.NoError(t, m.Wait(context.Background()))
	assert.Equal(t, uint64(1), s.Snapshot().Turn)
}

func TestStartClickAfterRoundReturnsNoMove(t *testing.T) {
	s, _ := newAutoSession(t, WithStartMode(domain.TwoPlayers))
	clickAll(t, s, 0, 3, 1, 4, 2)

	m, err := s.StartClick(5)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, m.Wait(context.Background()))
	assert.Equal(t, AwaitingInput, s.Snapshot().State)
}
