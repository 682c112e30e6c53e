// Package session keeps the per-visitor dashboard state: the selected layer,
// the course filter and the municipality whose detail is open.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// State is a snapshot of one session.
type State struct {
	ID       string       `json:"id"`
	Layer    metric.Layer `json:"layer"`
	Course   string       `json:"course,omitempty"`
	Clicked  string       `json:"clicked,omitempty"`
	LastSeen time.Time    `json:"lastSeen"`
}

// Store holds sessions in memory. Sessions idle for longer than the TTL are
// treated as gone and removed by Sweep.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State

	ttl          time.Duration
	defaultLayer metric.Layer
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewStore creates an empty store. A nil clock uses the wall clock.
func NewStore(ttl time.Duration, defaultLayer metric.Layer, clock clockwork.Clock, logger *zap.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !defaultLayer.Valid() {
		defaultLayer = metric.Qualified
	}
	return &Store{
		sessions:     make(map[string]*State),
		ttl:          ttl,
		defaultLayer: defaultLayer,
		clock:        clock,
		logger:       logger,
	}
}

// Ensure returns the session with id, creating a fresh one when id is empty,
// unknown or expired. created reports whether a new session was made.
func (s *Store) Ensure(id string) (state State, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.live(id); ok {
		st.LastSeen = s.clock.Now()
		return *st, false
	}

	st := &State{
		ID:       uuid.NewString(),
		Layer:    s.defaultLayer,
		LastSeen: s.clock.Now(),
	}
	s.sessions[st.ID] = st
	s.logger.Debug("session created",
		zap.String("op", "session.Ensure"),
		zap.String("session", st.ID),
	)
	return *st, true
}

// Get returns the session with id and marks it as seen.
func (s *Store) Get(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.live(id)
	if !ok {
		return State{}, ErrNotFound
	}
	st.LastSeen = s.clock.Now()
	return *st, nil
}

// SetView stores the layer and course filter the session is looking at.
func (s *Store) SetView(id string, layer metric.Layer, course string) (State, error) {
	if !layer.Valid() {
		return State{}, fmt.Errorf("unknown layer %q", layer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.live(id)
	if !ok {
		return State{}, ErrNotFound
	}
	st.Layer = layer
	st.Course = course
	st.LastSeen = s.clock.Now()
	return *st, nil
}

// Select records name as the clicked municipality. It returns false when
// name is already the selected one, in which case the detail view must not
// be opened again.
func (s *Store) Select(id, name string) (bool, error) {
	name = dataset.NormalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.live(id)
	if !ok {
		return false, ErrNotFound
	}
	st.LastSeen = s.clock.Now()
	if name == "" || st.Clicked == name {
		return false, nil
	}
	st.Clicked = name
	return true, nil
}

// ClearSelection releases the selection lock so the same municipality can
// be opened again.
func (s *Store) ClearSelection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	st.Clicked = ""
	st.LastSeen = s.clock.Now()
	return nil
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.sessions {
		if s.expired(st) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartSweeper runs Sweep on the cron schedule spec (for example
// "@every 1m"). after, when not nil, receives the number of sessions left
// after each sweep. The returned function stops the scheduler and waits for
// a running sweep to finish.
func (s *Store) StartSweeper(spec string, after func(remaining int)) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("expired sessions removed",
				zap.String("op", "session.Sweep"),
				zap.Int("removed", n),
			)
		}
		if after != nil {
			after(s.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// live must be called with mu held.
func (s *Store) live(id string) (*State, bool) {
	if id == "" {
		return nil, false
	}
	st, ok := s.sessions[id]
	if !ok || s.expired(st) {
		return nil, false
	}
	return st, true
}

func (s *Store) expired(st *State) bool {
	return s.ttl > 0 && s.clock.Since(st.LastSeen) > s.ttl
}
