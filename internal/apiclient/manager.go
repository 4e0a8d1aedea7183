package apiclient

import (
	"context"
	"sync"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

// Manager hands out one Client per edge session, mirroring the
// one-client-per-browser-context shape of the frontend this gateway fronts.
// A client is rebound whenever its session's identity or token changes, and
// dropped when the session dies, so a retired session's interceptors can
// never fire against its successor.
type Manager struct {
	baseURL  string
	nav      ports.Navigator
	onLogout func(ctx context.Context, sess *domain.Session, reason string)
	opts     []Option

	mu      sync.Mutex
	clients map[string]*Client
	anon    *Client
}

// NewManager creates a Manager bound to one backend origin. onLogout is
// invoked (once per invalidated session) when the backend rejects a
// credential; nil is allowed for read-only use.
func NewManager(baseURL string, nav ports.Navigator, onLogout func(ctx context.Context, sess *domain.Session, reason string), opts ...Option) *Manager {
	m := &Manager{
		baseURL:  baseURL,
		nav:      nav,
		onLogout: onLogout,
		opts:     opts,
		clients:  make(map[string]*Client),
	}
	// Anonymous calls carry no token but a 401 still redirects to login.
	m.anon = New(baseURL, opts...)
	m.anon.Rebind(nil, nil, nav)
	return m
}

// For returns the client for the given session, creating or rebinding it as
// needed. A nil session yields the shared anonymous client. Rebinding and
// client lookup are serialised, so a request dispatched after a session
// change always runs under the new generation.
func (m *Manager) For(sess *domain.Session) *Client {
	if sess == nil {
		return m.anon
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[sess.ID]
	if !ok {
		c = New(m.baseURL, m.opts...)
		m.clients[sess.ID] = c
	}

	bound := c.Bound()
	if bound == nil || bound.AccessToken != sess.AccessToken || bound.Identity.UID != sess.Identity.UID {
		s := sess
		c.Rebind(s, func(ctx context.Context, reason string) {
			m.Drop(s.ID)
			if m.onLogout != nil {
				m.onLogout(ctx, s, reason)
			}
		}, m.nav)
	}
	return c
}

// Drop discards the client for a session. Safe to call for unknown IDs.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, sessionID)
}
