package server

import (
	"context"
	"sync"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/session"
)

// sessionManager synchronizes access to the underlying session. A session isn't
// safe for concurrent use and every read or write moves its last-used pin, so
// anything touching pins takes the write lock. Replacing the session closes the
// old one, which is why callers never get to keep it.
type sessionManager struct {
	session *session.Session
	opts    []session.Option
	mu      *sync.RWMutex
}

func newSessionManager(opts ...session.Option) *sessionManager {
	return &sessionManager{opts: opts, mu: new(sync.RWMutex)}
}

// Update closes the current session, if any, and opens a new one from config.
// The new session may be degraded; its status is returned.
func (m *sessionManager) Update(ctx context.Context, config hardware.Config) (session.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.session != nil {
		err = m.session.Close()
	}

	m.session = session.Open(ctx, config, m.opts...)

	return m.session.Status(), err
}

// Do runs fn with exclusive access to the session.
func (m *sessionManager) Do(fn func(s *session.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return session.ErrNoBoard
	}

	return fn(m.session)
}

// View runs fn with shared access to the session. fn must not drive pins.
func (m *sessionManager) View(fn func(s *session.Session)) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return false
	}

	fn(m.session)
	return true
}

func (m *sessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}

	return m.session.Close()
}
