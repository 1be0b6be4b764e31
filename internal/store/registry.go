package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendboard/internal/attendance"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is one client's private workspace: its store and its fill-attendance
// workflow.
type Session struct {
	ID    string
	Store *Store

	mu       sync.Mutex
	workflow *attendance.Workflow
	lastSeen time.Time
}

// WithWorkflow runs fn with exclusive access to the session workflow.
func (s *Session) WithWorkflow(fn func(wf *attendance.Workflow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.workflow)
}

// Registry keeps sessions in memory and expires idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	seed     func() Seed
	now      func() time.Time

	// Observe, when set, receives the session count after every change.
	Observe func(n int)
}

// NewRegistry creates a registry whose sessions start from seed() and expire
// after ttl without use.
func NewRegistry(ttl time.Duration, seed func() Seed, now func() time.Time) *Registry {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		seed:     seed,
		now:      now,
	}
}

// Create starts a new seeded session with the given role active.
func (r *Registry) Create(role attendance.Role) (*Session, error) {
	st := New(r.seed())
	if role != "" {
		if err := st.SetRole(role); err != nil {
			return nil, err
		}
	}
	sess := &Session{
		ID:       uuid.NewString(),
		Store:    st,
		workflow: attendance.NewWorkflow(r.now),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	n := len(r.sessions)
	r.mu.Unlock()

	r.observe(n)
	return sess, nil
}

// Get returns a live session and marks it used.
func (r *Registry) Get(id string) (*Session, error) {
	now := r.now()
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok && now.Sub(sess.lastSeen) > r.ttl {
		delete(r.sessions, id)
		n := len(r.sessions)
		r.mu.Unlock()
		r.observe(n)
		return nil, ErrSessionNotFound
	}
	if ok {
		sess.lastSeen = now
	}
	r.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	removed := 0
	for id, sess := range r.sessions {
		if now.Sub(sess.lastSeen) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.observe(n)
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) observe(n int) {
	if r.Observe != nil {
		r.Observe(n)
	}
}
