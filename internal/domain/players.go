package domain

import "fmt"

// Mode selects which pair of players is seated.
type Mode string

const (
	OnePlayer  Mode = "one player"
	TwoPlayers Mode = "two players"
)

// Modes lists the supported modes in toggle order.
var Modes = [2]Mode{OnePlayer, TwoPlayers}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == OnePlayer {
		return TwoPlayers
	}
	return OnePlayer
}

// Outcome is a score category.
type Outcome uint8

const (
	Win Outcome = iota
	Lose
	Tie
)

// Score counts round outcomes for one player.
type Score struct {
	Wins   int
	Losses int
	Ties   int
}

// Player is a seat in a mode.
type Player struct {
	Name      string
	Mark      Cell
	Automated bool
	Score     Score
}

// Record increments the counter matching outcome.
func (p *Player) Record(o Outcome) {
	switch o {
	case Win:
		p.Score.Wins++
	case Lose:
		p.Score.Losses++
	case Tie:
		p.Score.Ties++
	}
}

// Players holds both mode presets and the turn counter.
type Players struct {
	seats map[Mode]*[2]Player
	turn  uint64
}

// NewPlayers seats the default players for both modes.
func NewPlayers() *Players {
	return &Players{
		seats: map[Mode]*[2]Player{
			OnePlayer: {
				{Name: "player", Mark: X},
				{Name: "computer", Mark: O, Automated: true},
			},
			TwoPlayers: {
				{Name: "player1", Mark: X},
				{Name: "player2", Mark: O},
			},
		},
	}
}

// Seats returns the players of mode. The returned array aliases the live state.
func (p *Players) Seats(mode Mode) *[2]Player {
	return p.seats[mode]
}

// Current returns the player whose turn it is in mode.
func (p *Players) Current(mode Mode) *Player {
	return &p.seats[mode][p.turn%2]
}

// Opponent returns the player waiting for their turn in mode.
func (p *Players) Opponent(mode Mode) *Player {
	return &p.seats[mode][(p.turn+1)%2]
}

// Turn returns the raw turn counter.
func (p *Players) Turn() uint64 { return p.turn }

// SwitchTurn passes the turn to the other player.
func (p *Players) SwitchTurn() { p.turn++ }

// ResetTurn gives the turn back to the first player.
func (p *Players) ResetTurn() { p.turn = 0 }

// RecordResult applies a finished round to the scores of mode.
// A tie counts for both players; a win counts as a loss for the other player.
func (p *Players) RecordResult(mode Mode, r RoundResult) {
	seats := p.seats[mode]
	if r.Tie {
		for i := range seats {
			seats[i].Record(Tie)
		}
		return
	}
	for i := range seats {
		if seats[i].Mark == r.Winner {
			seats[i].Record(Win)
		} else {
			seats[i].Record(Lose)
		}
	}
}

// ResetScores zeroes every counter of mode.
func (p *Players) ResetScores(mode Mode) {
	seats := p.seats[mode]
	for i := range seats {
		seats[i].Score = Score{}
	}
}
