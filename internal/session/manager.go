package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/giftsplit/internal/models"
)

// ManagerOptions configures a Manager and the sessions it opens.
type ManagerOptions struct {
	// IdleTTL is how long a session may go without events before Sweep
	// drops it. Zero disables expiry.
	IdleTTL time.Duration

	ReseedOnEqualInput bool

	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Manager is the registry of live sessions, keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts ManagerOptions
}

// NewManager creates an empty registry.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Open creates a session, applies the initial input and registers it.
func (m *Manager) Open(in models.ItemContext) *Session {
	s := New(uuid.New().String(), Options{
		ReseedOnEqualInput: m.opts.ReseedOnEqualInput,
		Observer:           m.opts.Observer,
		Logger:             m.opts.Logger,
		Now:                m.opts.Now,
	})
	s.UpdateInput(in)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.opts.Observer.SessionOpened()
	m.opts.Logger.Info("Session opened", "session_id", s.ID(), "item_id", in.ItemID)
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close drops the session. It returns false if it was not registered.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.opts.Observer.SessionClosed()
		m.opts.Logger.Info("Session closed", "session_id", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than IdleTTL as of now and returns
// how many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTTL)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if m.Close(id) {
			n++
		}
	}
	return n
}
