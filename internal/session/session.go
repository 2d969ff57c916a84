// Package session manages live editing sessions: one assembler per
// connection, plus the operations that built its request.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/diagram"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/metrics"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

// Session holds per-connection editing state. Its methods serialize access
// to the assembler.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	asm          *assembler.Assembler
	history      []diagram.Operation
	lastActiveAt time.Time
	now          func() time.Time
}

func newSession(tables *schema.Tables, now func() time.Time, logger *slog.Logger) *Session {
	t := now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    t,
		asm:          assembler.New(tables, assembler.WithLogger(logger)),
		lastActiveAt: t,
		now:          now,
	}
}

// Apply performs op. A successful operation is added to the history; a
// failed one leaves the session as it was.
func (s *Session) Apply(op diagram.Operation) (document.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = s.now()
	err := op.Apply(s.asm)
	if op.Op == diagram.OpObject || op.Op == diagram.OpValues {
		metrics.Insertions.WithLabelValues(metrics.InsertionResult(err)).Inc()
	}
	if err != nil {
		return document.Request{}, err
	}
	s.history = append(s.history, op)
	return s.asm.Request(), nil
}

// Reset empties the request and the history.
func (s *Session) Reset() document.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = s.now()
	s.asm.Reset()
	s.history = nil
	return s.asm.Request()
}

// Request returns a copy of the current request.
func (s *Session) Request() document.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asm.Request()
}

// Trail returns the object types inserted so far, oldest first.
func (s *Session) Trail() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asm.Trail()
}

// Diagram returns the operations applied so far.
func (s *Session) Diagram() diagram.Diagram {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]diagram.Operation, len(s.history))
	copy(ops, s.history)
	return diagram.Diagram{Operations: ops}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = s.now()
	s.mu.Unlock()
}

// LastActiveAt returns when the session was last used.
func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return s.now().Sub(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	return s.now().Sub(s.LastActiveAt()) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	tables      *schema.Tables
	maxAge      time.Duration
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager with the given timeouts.
func NewManager(tables *schema.Tables, maxAge, idleTimeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		tables:      tables,
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create creates a new session and returns it.
func (m *Manager) Create() *Session {
	s := newSession(m.tables, m.now, m.logger)
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.Sessions.Set(float64(n))
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.Sessions.Set(float64(n))
}

// Len returns the number of sessions held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and returns how many went.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.Sessions.Set(float64(n))
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				m.logger.Info("removed stale sessions", "count", n)
			}
		}
	}
}
