package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Errors exposed by the service layer.
var ErrNotFound = errors.New("session not found")

type entry struct {
	session *Session
	feed    *feed
}

// Service manages sessions and their subscribers.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      settings
	logger   *slog.Logger
}

// NewService creates a service; opts apply to every session it creates.
func NewService(opts ...Option) *Service {
	cfg := buildSettings(opts)
	return &Service{
		sessions: make(map[string]*entry),
		cfg:      cfg,
		logger:   cfg.logger.With("component", "service"),
	}
}

// CreateSession creates, draws and registers a new session.
func (s *Service) CreateSession() (*Session, error) {
	id := uuid.NewString()
	f := newFeed(id, s.cfg.subscriberBuffer)
	sess := newSession(id, f, s.cfg)
	sess.Start()

	s.mu.Lock()
	s.sessions[id] = &entry{session: sess, feed: f}
	n := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("session created", "session", id, "sessions", n)
	return sess, nil
}

// Get returns the session with id.
func (s *Service) Get(id string) (*Session, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Frame returns the latest display frame of a session.
func (s *Service) Frame(id string) (Frame, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return Frame{}, false
	}
	return e.feed.current(), true
}

// Subscribe registers a subscriber for a session. The channel first receives
// the current frame, then one frame per renderer call.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Frame, func(), error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, nil, ErrNotFound
	}
	ch, unsub := e.feed.subscribe(ctx)
	return ch, unsub, nil
}

// Remove drops a session, aborting its pending move and closing its subscribers.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.session.Close()
	e.feed.close()
	s.logger.Info("session removed", "session", id)
	return true
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close removes every session.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Remove(id)
	}
}

func (s *Service) lookup(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	return e, ok
}
