package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

func TestManager_OneClientPerSession(t *testing.T) {
	m := NewManager("http://backend", nil, nil)

	sess := testSession("s1", "tok-1")
	c1 := m.For(sess)
	c2 := m.For(sess)
	if c1 != c2 {
		t.Fatalf("same session must reuse its client")
	}

	other := m.For(testSession("s2", "tok-2"))
	if other == c1 {
		t.Fatalf("distinct sessions must not share a client")
	}
}

func TestManager_NilSessionUsesAnonymousClient(t *testing.T) {
	m := NewManager("http://backend", nil, nil)
	if m.For(nil) != m.For(nil) {
		t.Fatalf("anonymous client must be shared")
	}
	if m.For(nil).Bound() != nil {
		t.Fatalf("anonymous client must carry no session")
	}
}

func TestManager_TokenChangeRebinds(t *testing.T) {
	m := NewManager("http://backend", nil, nil)

	sess := testSession("s1", "tok-1")
	c := m.For(sess)
	if c.Bound().AccessToken != "tok-1" {
		t.Fatalf("unexpected bound token %q", c.Bound().AccessToken)
	}

	refreshed := *sess
	refreshed.AccessToken = "tok-2"
	if got := m.For(&refreshed); got != c {
		t.Fatalf("refreshed session should rebind the same client")
	}
	if c.Bound().AccessToken != "tok-2" {
		t.Fatalf("rebind did not install the new token, got %q", c.Bound().AccessToken)
	}
}

func TestManager_ForcedLogout_DropsClientAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var mu sync.Mutex
	var loggedOut []string
	m := NewManager(srv.URL, nil, func(_ context.Context, sess *domain.Session, reason string) {
		mu.Lock()
		defer mu.Unlock()
		loggedOut = append(loggedOut, sess.ID+":"+reason)
	})

	sess := testSession("s1", "tok-1")
	before := m.For(sess)

	_, err := before.Do(context.Background(), http.MethodGet, "/issues", nil, nil)
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}

	mu.Lock()
	got := append([]string(nil), loggedOut...)
	mu.Unlock()
	if len(got) != 1 || got[0] != "s1:backend_401" {
		t.Fatalf("expected one forced logout for s1, got %v", got)
	}

	// The dead session's client is discarded; a fresh For builds a new one.
	if m.For(sess) == before {
		t.Fatalf("client should have been dropped after forced logout")
	}
}
