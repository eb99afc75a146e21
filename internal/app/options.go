package app

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

const (
	defaultTransitionTimeout = 3 * time.Second
	defaultSubscriberBuffer  = 8
)

type settings struct {
	logger            *slog.Logger
	startMode         domain.Mode
	transitionTimeout time.Duration
	resetScores       bool
	pick              func(n int) int
	subscriberBuffer  int
}

func defaultSettings() settings {
	return settings{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		startMode:         domain.OnePlayer,
		transitionTimeout: defaultTransitionTimeout,
		pick:              rand.IntN,
		subscriberBuffer:  defaultSubscriberBuffer,
	}
}

// Option configures sessions and the service that creates them.
type Option func(*settings)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStartMode sets the mode new sessions begin in.
func WithStartMode(m domain.Mode) Option {
	return func(s *settings) { s.startMode = m }
}

// WithTransitionTimeout bounds how long a move waits for its transition to
// finish before continuing anyway. Zero waits forever.
func WithTransitionTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.transitionTimeout = d
		}
	}
}

// WithScoreReset zeroes the scores of the mode being switched to on every toggle.
func WithScoreReset(on bool) Option {
	return func(s *settings) { s.resetScores = on }
}

// WithPicker replaces the random source of the automated player. pick must
// return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *settings) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithSubscriberBuffer sets how many frames a subscriber may lag before it is dropped.
func WithSubscriberBuffer(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.subscriberBuffer = n
		}
	}
}

func buildSettings(opts []Option) settings {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	return s
}
