package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

// Errors returned by session operations.
var (
	ErrInputLatched = errors.New("a move is still in transition")
	ErrRoundAborted = errors.New("round aborted")
)

// State is the position of a session in its turn cycle.
type State uint8

const (
	AwaitingInput State = iota
	MarkPlaced
	AnimatingTransition
	WinDetected
	TieDetected
	ContinuePlay
	RoundOver
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case MarkPlaced:
		return "mark_placed"
	case AnimatingTransition:
		return "animating_transition"
	case WinDetected:
		return "win_detected"
	case TieDetected:
		return "tie_detected"
	case ContinuePlay:
		return "continue_play"
	case RoundOver:
		return "round_over"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	ID      string
	Mode    domain.Mode
	State   State
	CanPlay bool
	Board   domain.Board
	Turn    uint64
	Current domain.Player
	Players [2]domain.Player
}

// Session runs the rounds of one game: it validates clicks, places marks,
// waits for each mark's transition, resolves wins and ties and plays the
// automated player.
type Session struct {
	ID string

	mu      sync.Mutex
	flow    *domain.Flow
	state   State
	canPlay bool
	round   uint64
	render  Renderer
	cfg     settings
	logger  *slog.Logger

	// pendingMu guards pending only, so the display can resolve a transition
	// while a renderer call holds mu.
	pendingMu sync.Mutex
	pending   *transition
}

// NewSession creates a session drawing through r.
func NewSession(id string, r Renderer, opts ...Option) *Session {
	return newSession(id, r, buildSettings(opts))
}

func newSession(id string, r Renderer, cfg settings) *Session {
	if r == nil {
		r = nopRenderer{}
	}
	return &Session{
		ID:      id,
		flow:    domain.NewFlow(cfg.startMode),
		state:   AwaitingInput,
		canPlay: true,
		render:  r,
		cfg:     cfg,
		logger:  cfg.logger.With("component", "session", "session", id),
	}
}

// Start draws the scoreboard and an empty board.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderScoreboardLocked()
	s.render.ClearBoard()
}

// Move is a placed mark whose transition has not been reported yet.
type Move struct {
	s     *Session
	t     *transition
	round uint64
}

// Cell returns the cell the mark was placed on.
func (m *Move) Cell() int { return m.t.cell }

// Wait blocks until the move, and any automated reply, has resolved.
func (m *Move) Wait(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.s.run(ctx, m.t, m.round)
}

// Click handles a click on a cell. On a finished round the click only clears
// the display. Otherwise the active player's mark is placed and Click blocks
// until the move, and any automated reply, has resolved.
func (s *Session) Click(ctx context.Context, index int) error {
	m, err := s.StartClick(index)
	if err != nil {
		return err
	}
	return m.Wait(ctx)
}

// StartClick is the part of Click that runs under the session lock: it
// rejects or places the mark and returns without waiting for the transition.
// The returned Move is nil when the click only cleared a finished round.
func (s *Session) StartClick(index int) (*Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == RoundOver {
		s.state = AwaitingInput
		s.render.ClearBoard()
		return nil, nil
	}
	if !s.canPlay {
		return nil, ErrInputLatched
	}
	t, err := s.placeLocked(index)
	if err != nil {
		return nil, fmt.Errorf("place mark: %w", err)
	}
	return &Move{s: s, t: t, round: s.round}, nil
}

// run drives placed moves through their transitions until a human has to act.
func (s *Session) run(ctx context.Context, t *transition, round uint64) error {
	log := s.logger.With("method", "run")

	for t != nil {
		switch t.wait(ctx, s.cfg.transitionTimeout) {
		case waitAborted:
			return ErrRoundAborted
		case waitCanceled:
			s.abandon(t, round)
			return ctx.Err()
		case waitTimeout:
			log.Warn("transition did not finish in time", "cell", t.cell, "timeout", s.cfg.transitionTimeout)
		}

		s.mu.Lock()
		if round != s.round {
			s.mu.Unlock()
			return ErrRoundAborted
		}
		s.clearPending(t)
		s.canPlay = true
		next, err := s.resolveLocked(t.cell)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("automated move: %w", err)
		}
		t = next
	}
	return nil
}

// placeLocked puts the active player's mark on index and arms its transition.
func (s *Session) placeLocked(index int) (*transition, error) {
	p := s.flow.Current()
	if err := s.flow.Board.Place(p.Mark, index); err != nil {
		return nil, err
	}
	s.state = MarkPlaced
	s.logger.Debug("mark placed", "player", p.Name, "mark", p.Mark.String(), "cell", index)

	t := newTransition(index)
	s.setPending(t)
	s.canPlay = false
	s.state = AnimatingTransition
	s.render.ShowMark(index, p.Mark)
	return t, nil
}

// resolveLocked evaluates the board after the mark on cell finished its
// transition. It returns the transition of the automated reply, if any.
func (s *Session) resolveLocked(cell int) (*transition, error) {
	mark := s.flow.Board.At(cell)
	if s.flow.HasWon(mark) {
		s.state = WinDetected
		line, _ := s.flow.WinningLine()
		s.finishLocked(domain.RoundResult{Winner: mark, Line: line})
		return nil, nil
	}
	if s.flow.IsTie(mark) {
		s.state = TieDetected
		s.finishLocked(domain.RoundResult{Tie: true})
		return nil, nil
	}

	s.state = ContinuePlay
	s.flow.Players.SwitchTurn()
	next := s.flow.Current()
	if !next.Automated {
		s.state = AwaitingInput
		return nil, nil
	}
	empty := s.flow.Board.EmptyIndices()
	return s.placeLocked(empty[s.cfg.pick(len(empty))])
}

func (s *Session) finishLocked(r domain.RoundResult) {
	mode := s.flow.Mode()
	s.flow.Players.RecordResult(mode, r)
	if r.Tie {
		s.render.HighlightTie()
		s.logger.Info("round over", "mode", string(mode), "result", "tie")
	} else {
		s.render.HighlightWin(r.Winner, r.Line)
		s.logger.Info("round over", "mode", string(mode), "result", "win",
			"winner", s.flow.Current().Name, "loser", s.flow.Players.Opponent(mode).Name, "line", r.Line)
	}
	s.renderScoreboardLocked()
	s.flow.EndRound()
	s.state = RoundOver
}

// abandon drops a round whose waiter gave up, so the session is not left latched.
func (s *Session) abandon(t *transition, round uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return
	}
	s.clearPending(t)
	s.resetRoundLocked()
	s.render.ClearBoard()
}

// TransitionDone reports that the transition on index finished. It returns
// false when no move is waiting on that cell or it was already reported.
func (s *Session) TransitionDone(index int) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending == nil || s.pending.cell != index {
		return false
	}
	return s.pending.resolve()
}

// ToggleMode discards the round in progress and switches to the other mode.
func (s *Session) ToggleMode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortPending()
	s.resetRoundLocked()
	mode := s.flow.ToggleMode()
	if s.cfg.resetScores {
		s.flow.Players.ResetScores(mode)
	}
	s.logger.Info("mode switched", "mode", string(mode))

	s.renderScoreboardLocked()
	s.render.ClearBoard()
	return mode
}

// Close aborts any move in transition.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortPending()
	s.round++
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := s.flow.Mode()
	return Snapshot{
		ID:      s.ID,
		Mode:    mode,
		State:   s.state,
		CanPlay: s.canPlay,
		Board:   *s.flow.Board,
		Turn:    s.flow.Players.Turn(),
		Current: *s.flow.Current(),
		Players: *s.flow.Players.Seats(mode),
	}
}

func (s *Session) resetRoundLocked() {
	s.round++
	s.flow.EndRound()
	s.canPlay = true
	s.state = AwaitingInput
}

func (s *Session) renderScoreboardLocked() {
	mode := s.flow.Mode()
	s.render.RenderScoreboard(mode, *s.flow.Players.Seats(mode))
}

func (s *Session) abortPending() {
	s.pendingMu.Lock()
	if s.pending != nil {
		s.pending.abort()
		s.pending = nil
	}
	s.pendingMu.Unlock()
}

func (s *Session) setPending(t *transition) {
	s.pendingMu.Lock()
	s.pending = t
	s.pendingMu.Unlock()
}

func (s *Session) clearPending(t *transition) {
	s.pendingMu.Lock()
	if s.pending == t {
		s.pending = nil
	}
	s.pendingMu.Unlock()
}
