// Package session keeps server-side web sessions in memory.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mscwg/catalog/internal/catalog/users"
)

// DefaultTTL is how long an idle session stays valid.
const DefaultTTL = 12 * time.Hour

// stateTTL bounds the sign-in round trip to the provider.
const stateTTL = 10 * time.Minute

type entry struct {
	user    users.User
	expires time.Time
}

type loginState struct {
	provider string
	next     string
	expires  time.Time
}

// Manager issues and resolves opaque session identifiers.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]entry
	states   map[string]loginState
}

// NewManager returns a session manager with the given idle TTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]entry),
		states:   make(map[string]loginState),
	}
}

// Create stores the user and returns a fresh session id.
func (m *Manager) Create(user users.User) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.sessions[id] = entry{user: user, expires: m.now().Add(m.ttl)}
	return id
}

// Lookup resolves a session id to its user and slides the expiry.
func (m *Manager) Lookup(id string) (users.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || m.now().After(e.expires) {
		delete(m.sessions, id)
		return users.User{}, false
	}
	e.expires = m.now().Add(m.ttl)
	m.sessions[id] = e
	return e.user, true
}

// Destroy removes a session id.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// BeginLogin records an OAuth state token for the provider round trip.
func (m *Manager) BeginLogin(provider, next string) string {
	state := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.states[state] = loginState{provider: provider, next: next, expires: m.now().Add(stateTTL)}
	return state
}

// CompleteLogin consumes a state token, returning the provider and redirect target.
func (m *Manager) CompleteLogin(state string) (provider, next string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, found := m.states[state]
	delete(m.states, state)
	if !found || m.now().After(s.expires) {
		return "", "", false
	}
	return s.provider, s.next, true
}

// prune drops expired entries; callers hold the lock.
func (m *Manager) prune() {
	now := m.now()
	for id, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, id)
		}
	}
	for state, s := range m.states {
		if now.After(s.expires) {
			delete(m.states, state)
		}
	}
}
