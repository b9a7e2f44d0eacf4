package session

import (
	"sort"
	"sync"
	"time"
)

// Option adjusts the Config of a session created by a Manager.
type Option func(*Config)

// WithSystemPrompt overrides the system prompt for one session.
func WithSystemPrompt(p string) Option {
	return func(c *Config) {
		c.SystemPrompt = p
	}
}

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(c *Config) {
		c.ID = id
	}
}

// Manager keeps independent sessions keyed by id. Sessions share the base
// profile, credential and sender read-only.
type Manager struct {
	base Config

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewManager creates a Manager whose sessions start from base.
func NewManager(base Config) *Manager {
	base.ID = ""
	return &Manager{
		base:     base,
		sessions: make(map[string]*Controller),
	}
}

// SetBase replaces the config used for sessions created from now on.
// Running sessions keep the config they started with.
func (m *Manager) SetBase(base Config) {
	base.ID = ""
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base = base
}

// Base returns the config new sessions start from.
func (m *Manager) Base() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.base
}

// Create starts a new session.
func (m *Manager) Create(opts ...Option) (*Controller, error) {
	cfg := m.Base()
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.ID()] = c
	return c, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Delete ends the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// List returns a summary of every session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, c := range m.sessions {
		out = append(out, c.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle ends every session that has been idle for longer than maxIdle
// at now and returns their ids. Sessions waiting on a reply are kept.
func (m *Manager) PruneIdle(maxIdle time.Duration, now time.Time) []string {
	if maxIdle <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for id, c := range m.sessions {
		since, idle := c.IdleSince()
		if idle && now.Sub(since) > maxIdle {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}
