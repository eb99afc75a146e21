package app

import (
	"context"
	"sync"

	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

// FrameKind names the renderer call that produced a frame.
type FrameKind string

const (
	FrameMark       FrameKind = "mark"
	FrameWin        FrameKind = "win"
	FrameTie        FrameKind = "tie"
	FrameScoreboard FrameKind = "scoreboard"
	FrameClear      FrameKind = "clear"
)

// CellView is what the display shows on one cell.
type CellView struct {
	Mark domain.Cell `json:"mark"`
	Win  bool        `json:"win,omitempty"`
	Lose bool        `json:"lose,omitempty"`
	Tie  bool        `json:"tie,omitempty"`
}

// ScoreLine is one player's row on the scoreboard.
type ScoreLine struct {
	Name   string      `json:"name"`
	Mark   domain.Cell `json:"mark"`
	Wins   int         `json:"wins"`
	Losses int         `json:"losses"`
	Ties   int         `json:"ties"`
}

// Scoreboard is the score display of the active mode.
type Scoreboard struct {
	Mode    domain.Mode  `json:"mode"`
	Players [2]ScoreLine `json:"players"`
	Ties    int          `json:"ties"`
}

// Frame is the full display state after a renderer call.
type Frame struct {
	Session    string                `json:"session"`
	Kind       FrameKind             `json:"kind"`
	Cells      [domain.Size]CellView `json:"cells"`
	Scoreboard Scoreboard            `json:"scoreboard"`
	// Fresh is the cell whose transition is running, -1 when none.
	Fresh int `json:"fresh"`
}

type subscriber struct {
	ch        chan Frame
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// feed renders a session into frames and fans them out to subscribers.
// Subscribers that fall behind by more than their buffer are dropped.
type feed struct {
	mu     sync.Mutex
	frame  Frame
	subs   map[*subscriber]struct{}
	buffer int
	closed bool
}

func newFeed(session string, buffer int) *feed {
	if buffer < 1 {
		buffer = 1
	}
	return &feed{
		frame:  Frame{Session: session, Kind: FrameClear, Fresh: -1},
		subs:   make(map[*subscriber]struct{}),
		buffer: buffer,
	}
}

func (f *feed) ShowMark(index int, mark domain.Cell) {
	f.update(FrameMark, func(fr *Frame) {
		fr.Cells[index] = CellView{Mark: mark}
		fr.Fresh = index
	})
}

func (f *feed) HighlightWin(winner domain.Cell, line domain.Line) {
	f.update(FrameWin, func(fr *Frame) {
		for i := range fr.Cells {
			if line.Contains(i) {
				fr.Cells[i].Win = true
			}
			if fr.Cells[i].Mark != winner {
				fr.Cells[i].Lose = true
			}
		}
	})
}

func (f *feed) HighlightTie() {
	f.update(FrameTie, func(fr *Frame) {
		for i := range fr.Cells {
			fr.Cells[i].Tie = true
		}
	})
}

func (f *feed) RenderScoreboard(mode domain.Mode, players [2]domain.Player) {
	f.update(FrameScoreboard, func(fr *Frame) {
		sb := Scoreboard{Mode: mode}
		for i, p := range players {
			sb.Players[i] = ScoreLine{
				Name:   p.Name,
				Mark:   p.Mark,
				Wins:   p.Score.Wins,
				Losses: p.Score.Losses,
				Ties:   p.Score.Ties,
			}
		}
		// both players always share the tie count; show the second one's
		sb.Ties = players[1].Score.Ties
		fr.Scoreboard = sb
	})
}

func (f *feed) ClearBoard() {
	f.update(FrameClear, func(fr *Frame) {
		fr.Cells = [domain.Size]CellView{}
	})
}

// update applies fn to the frame and publishes the result.
func (f *feed) update(kind FrameKind, fn func(*Frame)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frame.Fresh = -1
	fn(&f.frame)
	f.frame.Kind = kind

	// Fan-out; drop slow subscribers by closing them
	for sub := range f.subs {
		select {
		case sub.ch <- f.frame:
		default:
			sub.close()
			delete(f.subs, sub)
		}
	}
}

// current returns the latest frame.
func (f *feed) current() Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

// subscribe registers a subscriber primed with the current frame.
// The subscription ends when ctx is done or unsubscribe is called.
func (f *feed) subscribe(ctx context.Context) (<-chan Frame, func()) {
	sub := &subscriber{ch: make(chan Frame, f.buffer)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	f.subs[sub] = struct{}{}
	sub.ch <- f.frame
	f.mu.Unlock()

	stop := make(chan struct{})
	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			close(stop)
			f.mu.Lock()
			delete(f.subs, sub)
			f.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-stop:
		}
	}()
	return sub.ch, unsub
}

// close ends every subscription.
func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for sub := range f.subs {
		sub.close()
		delete(f.subs, sub)
	}
}
