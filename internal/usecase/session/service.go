package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/coordinator"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

// Config bounds the session pool.
type Config struct {
	MaxSessions int
	Observer    coordinator.Observer
	Gauge       Gauge
	Logger      *zap.Logger
}

// Session is a freshly created widget instance.
type Session struct {
	ID     string
	Intent intent.Intent
}

type entry struct {
	coord    *coordinator.Coordinator
	lastSeen time.Time
}

// Service keeps one coordinator per widget instance.
type Service struct {
	settings settings.Settings
	searcher Searcher
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// New creates a session service. Every session uses the same settings.
func New(s settings.Settings, searcher Searcher, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings: s,
		searcher: searcher,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Settings returns the settings shared by all sessions.
func (s *Service) Settings() settings.Settings { return s.settings }

// Create mounts a new widget instance and returns its initial snapshot.
// The mount search is already in flight when Create returns.
func (s *Service) Create(_ context.Context) (Session, error) {
	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return Session{}, fmt.Errorf("create session: %w", domain.ErrTooManySessions)
	}

	id := uuid.NewString()
	opts := []coordinator.Option{
		coordinator.WithID(id),
		coordinator.WithLogger(s.logger),
	}
	if s.cfg.Observer != nil {
		opts = append(opts, coordinator.WithObserver(s.cfg.Observer))
	}
	c := coordinator.New(s.settings, s.searcher, opts...)
	s.sessions[id] = &entry{coord: c, lastSeen: s.now()}
	s.mu.Unlock()

	if s.cfg.Gauge != nil {
		s.cfg.Gauge.Inc()
	}
	s.logger.Debug("session created", zap.String("session", id))

	return Session{ID: id, Intent: c.Snapshot()}, nil
}

// Get returns the current snapshot of a session.
func (s *Service) Get(_ context.Context, id string) (intent.Intent, error) {
	c, err := s.touch(id)
	if err != nil {
		return intent.Intent{}, err
	}
	return c.Snapshot(), nil
}

// Coordinator returns the coordinator of a session.
func (s *Service) Coordinator(id string) (*coordinator.Coordinator, error) {
	return s.touch(id)
}

// Dispatch applies an action and returns the resulting snapshot.
func (s *Service) Dispatch(ctx context.Context, id string, a intent.Action) (intent.Intent, error) {
	c, err := s.touch(id)
	if err != nil {
		return intent.Intent{}, err
	}
	if err := c.Dispatch(ctx, a); err != nil {
		return intent.Intent{}, fmt.Errorf("dispatch: %w", err)
	}
	return c.Snapshot(), nil
}

// Refresh re-runs the search of a session. force bypasses the short-query gate.
func (s *Service) Refresh(ctx context.Context, id string, force bool) (intent.Intent, error) {
	c, err := s.touch(id)
	if err != nil {
		return intent.Intent{}, err
	}
	if err := c.Refresh(ctx, force); err != nil {
		return intent.Intent{}, fmt.Errorf("refresh: %w", err)
	}
	return c.Snapshot(), nil
}

// Close tears down a session, cancelling its in-flight search.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("close %s: %w", id, domain.ErrSessionNotFound)
	}
	s.teardown(id, e)
	return nil
}

// Sweep closes sessions idle for longer than idle and returns how many it closed.
func (s *Service) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	expired := make(map[string]*entry)
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired[id] = e
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for id, e := range expired {
		s.teardown(id, e)
	}
	if len(expired) > 0 {
		s.logger.Info("idle sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(idle)
		}
	}
}

// Len returns the number of open sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll tears down every session.
func (s *Service) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for id, e := range all {
		s.teardown(id, e)
	}
}

func (s *Service) touch(id string) (*coordinator.Coordinator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	e.lastSeen = s.now()
	return e.coord, nil
}

func (s *Service) teardown(id string, e *entry) {
	e.coord.Close()
	if s.cfg.Gauge != nil {
		s.cfg.Gauge.Dec()
	}
	s.logger.Debug("session closed", zap.String("session", id))
}
