package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

// Runner executes a single query.
type Runner interface {
	Run(ctx context.Context, q domain.Query) (domain.Result, error)
}

// Session serialises queries from one client: starting a query cancels the
// one still in flight, which then reports domain.ErrSuperseded.
type Session struct {
	runner Runner

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

// NewSession creates a Session over r.
func NewSession(r Runner) *Session {
	return &Session{runner: r}
}

// Run cancels any in-flight query of this session and runs q.
func (s *Session) Run(ctx context.Context, q domain.Query) (domain.Result, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(domain.ErrSuperseded)
	}
	s.seq++
	id := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel(nil)
	}()

	result, err := s.runner.Run(ctx, q)
	if errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
		result.Status = domain.StatusMessage(domain.ErrSuperseded)
		result.Table = []domain.TableRow{}
		result.Points = []domain.MapPoint{}
		result.FailedStations = []string{}
		result.StationCount, result.ReadingCount = 0, 0
		return result, domain.ErrSuperseded
	}
	return result, err
}

// Sessions keeps one Session per client key for as long as that client has
// a query in flight.
type Sessions struct {
	runner Runner

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session *Session
	active  int
}

// NewSessions creates an empty session registry over r.
func NewSessions(r Runner) *Sessions {
	return &Sessions{runner: r, sessions: make(map[string]*sessionEntry)}
}

// Run runs q in the Session for key.
func (s *Sessions) Run(ctx context.Context, key string, q domain.Query) (domain.Result, error) {
	s.mu.Lock()
	e, ok := s.sessions[key]
	if !ok {
		e = &sessionEntry{session: NewSession(s.runner)}
		s.sessions[key] = e
	}
	e.active++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		e.active--
		if e.active == 0 {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
	}()

	return e.session.Run(ctx, q)
}

// Len returns the number of sessions with a query in flight.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
