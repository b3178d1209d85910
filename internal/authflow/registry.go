package authflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/metrics"
)

// Factory builds the session for a new ID.
type Factory func(id string) (*Session, error)

// Registry keeps the live page sessions by ID.
type Registry struct {
	factory     Factory
	idleTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. Sessions idle for longer than idleTimeout
// are removed by Sweep; a zero timeout keeps them until removed.
func NewRegistry(factory Factory, idleTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      logger.With("component", "registry"),
		metrics:     m,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, creating one under a fresh ID when
// id is empty or unknown.
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && id != "" {
		return s, nil
	}

	newID := uuid.NewString()
	s, err := r.factory(newID)
	if err != nil {
		return nil, err
	}
	r.sessions[newID] = s
	r.metrics.SessionOpened()
	r.logger.Debug("page session created", "session_id", newID)
	return s, nil
}

// Remove closes and forgets the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
		r.metrics.SessionClosed()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes the sessions idle at now and returns how many it removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}

	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastUsed()) > r.idleTimeout {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
		r.metrics.SessionClosed()
	}
	if len(idle) > 0 {
		r.logger.Info("swept idle page sessions", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		r.metrics.SessionClosed()
	}
}
