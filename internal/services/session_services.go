package services

import (
	"sync"
	"time"

	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultSessionTTL = 24 * time.Hour

// ControllerFactory builds the scan controller for a new browser session.
type ControllerFactory func(sessionID string) *lifecycle.Controller

type SessionServiceMethods interface {
	NewSessionID() string
	Controller(sessionID string) *lifecycle.Controller
	Lookup(sessionID string) (*lifecycle.Controller, bool)
	Count() int
	Sweep() int
	Close()
}

type session struct {
	controller *lifecycle.Controller
	lastSeen   time.Time
}

type sessionService struct {
	factory  ControllerFactory
	logger   *logger.Logger
	ttl      time.Duration
	now      func() time.Time
	onChange func(count int)

	mu       sync.Mutex
	sessions map[string]*session
}

type SessionOption func(*sessionService)

func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *sessionService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *sessionService) { s.now = now }
}

// WithSessionCountObserver is told the number of sessions after every change.
func WithSessionCountObserver(fn func(int)) SessionOption {
	return func(s *sessionService) { s.onChange = fn }
}

func NewSessionService(factory ControllerFactory, opts ...SessionOption) SessionServiceMethods {
	s := &sessionService{
		factory:  factory,
		logger:   logger.NewLogger(logrus.InfoLevel),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		onChange: func(int) {},
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) NewSessionID() string {
	return uuid.New().String()
}

// Controller returns the controller of sessionID, creating it on first use.
func (s *sessionService) Controller(sessionID string) *lifecycle.Controller {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		sess.lastSeen = s.now()
		s.mu.Unlock()
		return sess.controller
	}
	sess = &session{controller: s.factory(sessionID), lastSeen: s.now()}
	s.sessions[sessionID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.WithField("session", sessionID).Debug("Created scan session")
	s.onChange(count)
	return sess.controller
}

func (s *sessionService) Lookup(sessionID string) (*lifecycle.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.controller, true
}

func (s *sessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL unless their scan is
// still running, and returns how many were dropped.
func (s *sessionService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*lifecycle.Controller
	for id, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) || sess.controller.Polling() {
			continue
		}
		expired = append(expired, sess.controller)
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		s.logger.WithField("expired", len(expired)).Info("Swept idle scan sessions")
		s.onChange(count)
	}
	return len(expired)
}

// Close stops every session's poller.
func (s *sessionService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.controller.Close()
	}
	s.onChange(0)
}
