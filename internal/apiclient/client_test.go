package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

type recorder struct {
	mu      sync.Mutex
	logouts []string
	navs    []string
}

func (r *recorder) logout(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logouts = append(r.logouts, reason)
}

func (r *recorder) Navigate(path, returnTo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, path+"|"+returnTo)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logouts), len(r.navs)
}

func testSession(id, token string) *domain.Session {
	return &domain.Session{
		ID:          id,
		Identity:    domain.Identity{UID: "u_" + id, Email: id + "@example.com"},
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour),
		CreatedAt:   time.Now(),
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), rec.logout, rec)

	type okBody struct {
		OK bool `json:"ok"`
	}
	body, err := GetJSON[okBody](context.Background(), c, "/issues")
	if err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if !body.OK {
		t.Fatalf("response not passed through")
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if l, n := rec.counts(); l != 0 || n != 0 {
		t.Fatalf("no side effect expected on 2xx, got logouts=%d navs=%d", l, n)
	}
}

func TestClient_ExpiredToken_NotAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sess := testSession("s1", "tok-1")
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	c := New(srv.URL)
	c.Rebind(sess, nil, nil)

	resp, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	resp.Body.Close()
	if gotAuth != "" {
		t.Fatalf("expired token must not be attached, got %q", gotAuth)
	}
}

func TestClient_AuthFailure_LogoutAndRedirectOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), rec.logout, rec)

	_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if l, n := rec.counts(); l != 1 || n != 1 {
		t.Fatalf("expected exactly one logout and one navigation, got logouts=%d navs=%d", l, n)
	}
	if rec.navs[0] != "/login|/issues" {
		t.Fatalf("navigation should carry the requested path, got %q", rec.navs[0])
	}
}

func TestClient_ConcurrentAuthFailures_SingleLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), rec.logout, rec)

	const inflight = 8
	var wg sync.WaitGroup
	for i := 0; i < inflight; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
			if !errors.Is(err, domain.ErrAuthExpired) {
				t.Errorf("expected ErrAuthExpired, got %v", err)
			}
		}()
	}
	wg.Wait()

	if l, n := rec.counts(); l != 1 || n != 1 {
		t.Fatalf("expected at-most-once side effect, got logouts=%d navs=%d", l, n)
	}
}

func TestClient_StaleGeneration_DoesNotTouchSuccessor(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	oldRec := &recorder{}
	newRec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), oldRec.logout, oldRec)

	done := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
		done <- err
	}()

	// A new identity takes over while the old request is still in flight.
	time.Sleep(20 * time.Millisecond)
	c.Rebind(testSession("s2", "tok-2"), newRec.logout, newRec)
	close(release)

	err := <-done
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("stale failure must still reject, got %v", err)
	}
	if l, n := oldRec.counts(); l != 0 || n != 0 {
		t.Fatalf("retired binding must not fire, got logouts=%d navs=%d", l, n)
	}
	if l, n := newRec.counts(); l != 0 || n != 0 {
		t.Fatalf("successor session must be untouched, got logouts=%d navs=%d", l, n)
	}
}

func TestClient_NoSession_RedirectsOn401(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(nil, nil, rec)

	_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous request must not carry Authorization, got %q", gotAuth)
	}
	if _, n := rec.counts(); n != 1 {
		t.Fatalf("anonymous 401 must still redirect once, got navs=%d", n)
	}
}

func TestClient_ServerError_NoSideEffect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), rec.logout, rec)

	_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if !errors.Is(err, domain.ErrServerError) {
		t.Fatalf("expected ErrServerError, got %v", err)
	}
	if errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("5xx must not classify as auth failure")
	}
	if l, n := rec.counts(); l != 0 || n != 0 {
		t.Fatalf("5xx must not touch the session, got logouts=%d navs=%d", l, n)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	rec := &recorder{}
	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), rec.logout, rec)

	_, err := c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if l, n := rec.counts(); l != 0 || n != 0 {
		t.Fatalf("transport failure must not touch the session, got logouts=%d navs=%d", l, n)
	}
}

func TestClient_NoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Rebind(testSession("s1", "tok-1"), nil, nil)

	_, _ = c.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if calls != 1 {
		t.Fatalf("client must never retry, got %d calls", calls)
	}
}
