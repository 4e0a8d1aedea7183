// Package apiclient is the single outbound path to the backend API. Every
// call carries the bound session's bearer token, and every response is
// inspected for authentication failure: a 401 or 403 destroys the session and
// sends the viewer to the login view, exactly once per session.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/api/metrics"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

const (
	defaultLoginPath = "/login"
	defaultTimeout   = 15 * time.Second
	logoutTimeout    = 5 * time.Second
)

// LogoutFunc destroys the session a binding was created for. It must not call
// back into Rebind on the same client.
type LogoutFunc func(ctx context.Context, reason string)

// binding is one interceptor generation: the (session, navigator) pair the
// client's hooks are currently bound to. Requests snapshot their binding at
// dispatch; the auth-failure side effect fires through the binding's latch so
// it runs at most once, and only while the binding is still current.
type binding struct {
	gen     uint64
	session *domain.Session
	logout  LogoutFunc
	nav     ports.Navigator
	fired   sync.Once
}

// Client is an HTTP client bound to one backend origin. Construction performs
// no network call. The zero binding is anonymous: requests go out without an
// Authorization header until Rebind installs a session.
type Client struct {
	baseURL   string
	loginPath string
	httpc     *http.Client
	log       zerolog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	binding *binding
	lastGen uint64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger attaches a logger; a disabled logger is used otherwise.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithLoginPath overrides the path viewers are sent to on auth failure.
func WithLoginPath(path string) Option {
	return func(c *Client) { c.loginPath = path }
}

// WithClock injects the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a client bound to one backend origin, initially anonymous.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		loginPath: defaultLoginPath,
		httpc:     &http.Client{Timeout: defaultTimeout},
		log:       zerolog.Nop(),
		now:       time.Now,
		binding:   &binding{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rebind atomically installs a new interceptor generation for the given
// session, logout operation, and navigator, retiring the previous one. No
// request dispatched after Rebind returns can carry the old token, and no
// response hook from a retired generation can destroy the new session.
//
// A nil session binds the client anonymously; the navigator still fires on
// 401 so sessionless calls redirect to login the same way expired ones do.
func (c *Client) Rebind(sess *domain.Session, logout LogoutFunc, nav ports.Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastGen++
	c.binding = &binding{gen: c.lastGen, session: sess, logout: logout, nav: nav}
}

// Bound returns the session of the current binding, or nil when anonymous.
func (c *Client) Bound() *domain.Session {
	return c.current().session
}

func (c *Client) current() *binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binding
}

// Do sends one request to the backend. The bearer token of the binding that
// is current at dispatch time is attached when it is still valid. On success
// (anything below 500 that is not 401/403) the caller owns resp.Body.
//
// Failure taxonomy, matched with errors.Is:
//   - 401/403       → domain.ErrAuthExpired, after the logout+redirect side effect
//   - 5xx           → domain.ErrServerError, no side effect
//   - transport err → domain.ErrNetworkUnavailable, no side effect
//
// The client never retries.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	b := c.current()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if b.session.IsAuthenticated(c.now()) {
		req.Header.Set("Authorization", "Bearer "+b.session.AccessToken)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrNetworkUnavailable, err)
	}
	metrics.BackendRequestDuration.WithLabelValues(method, statusClass(resp.StatusCode)).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.expire(b, resp.StatusCode, path)
		drainClose(resp.Body)
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domain.ErrAuthExpired)
	case resp.StatusCode >= http.StatusInternalServerError:
		drainClose(resp.Body)
		return nil, fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, domain.ErrServerError)
	}

	return resp, nil
}

// expire runs the logout-and-redirect side effect for the binding that
// dispatched the failing request. The binding's latch guarantees at most one
// execution, and a retired binding performs nothing: a request issued under
// session K that resolves after session K+1 has begun must not touch K+1.
func (c *Client) expire(b *binding, status int, path string) {
	b.fired.Do(func() {
		c.mu.RLock()
		stale := c.binding != b
		c.mu.RUnlock()
		if stale {
			c.log.Debug().Int("status", status).Str("path", path).
				Msg("auth failure from retired binding ignored")
			return
		}

		metrics.ForcedLogoutsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		c.log.Warn().Int("status", status).Str("path", path).
			Msg("backend rejected credential, destroying session")

		if b.logout != nil {
			ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
			defer cancel()
			b.logout(ctx, "backend_"+strconv.Itoa(status))
		}
		if b.nav != nil {
			b.nav.Navigate(c.loginPath, path)
		}
	})
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
