// Package session holds the current-session user. The manager is built by
// whoever composes the services and injected where needed; there is no
// package-level global. Lifecycle is entirely caller-driven: set after a
// successful login, cleared on logout, no expiry.
package session

import (
	"sync"

	"finly/internal/core"
)

type Manager struct {
	mu   sync.RWMutex
	user *core.User
}

func NewManager() *Manager {
	return &Manager{}
}

// Set stores u as the current session user.
func (m *Manager) Set(u core.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := u
	m.user = &copied
}

// Current returns the session user, if any.
func (m *Manager) Current() (core.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return core.User{}, false
	}
	return *m.user, true
}

// Clear ends the session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
}
