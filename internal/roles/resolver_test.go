package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

type stubDirectory struct {
	records map[string]*ports.UserRecord
	err     error
	lookups int
}

func (d *stubDirectory) Lookup(_ context.Context, sess *domain.Session) (*ports.UserRecord, error) {
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	rec, ok := d.records[sess.Identity.Email]
	if !ok {
		return nil, errors.New("user not found")
	}
	return rec, nil
}

type memCache struct {
	roles    map[string]domain.Role
	getErr   error
	setCalls int
}

func newMemCache() *memCache {
	return &memCache{roles: make(map[string]domain.Role)}
}

func (c *memCache) Get(_ context.Context, email string) (domain.Role, bool, error) {
	if c.getErr != nil {
		return domain.RoleUnknown, false, c.getErr
	}
	role, ok := c.roles[email]
	return role, ok, nil
}

func (c *memCache) Set(_ context.Context, email string, role domain.Role, _ time.Duration) error {
	c.setCalls++
	c.roles[email] = role
	return nil
}

func (c *memCache) Delete(_ context.Context, email string) error {
	delete(c.roles, email)
	return nil
}

func sessionFor(email string) *domain.Session {
	return &domain.Session{
		ID:          "sess-" + email,
		Identity:    domain.Identity{UID: "u-" + email, Email: email},
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newTestResolver(dir *stubDirectory, cache *memCache) *Resolver {
	return NewResolver(dir, cache, time.Minute, zerolog.Nop())
}

func TestResolver_FetchesAndCaches(t *testing.T) {
	dir := &stubDirectory{records: map[string]*ports.UserRecord{
		"staff@example.com": {Role: "staff"},
	}}
	cache := newMemCache()
	r := newTestResolver(dir, cache)

	role, err := r.Resolve(context.Background(), sessionFor("staff@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if role != domain.RoleStaff {
		t.Fatalf("expected staff, got %s", role)
	}
	if cache.roles["staff@example.com"] != domain.RoleStaff {
		t.Fatalf("role not cached")
	}

	// Second resolve is served from cache.
	if _, err := r.Resolve(context.Background(), sessionFor("staff@example.com")); err != nil {
		t.Fatalf("cached Resolve returned error: %v", err)
	}
	if dir.lookups != 1 {
		t.Fatalf("expected one directory lookup, got %d", dir.lookups)
	}
}

func TestResolver_AbsentRoleDefaultsToUser(t *testing.T) {
	dir := &stubDirectory{records: map[string]*ports.UserRecord{
		"plain@example.com": {},
	}}
	r := newTestResolver(dir, newMemCache())

	role, err := r.Resolve(context.Background(), sessionFor("plain@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if role != domain.RoleUser {
		t.Fatalf("absent role on a successful lookup must default to user, got %s", role)
	}
}

func TestResolver_LookupFailure_NeverDefaults(t *testing.T) {
	dir := &stubDirectory{err: errors.New("backend down")}
	cache := newMemCache()
	r := newTestResolver(dir, cache)

	_, err := r.Resolve(context.Background(), sessionFor("staff@example.com"))
	if !errors.Is(err, domain.ErrRoleUnresolved) {
		t.Fatalf("expected ErrRoleUnresolved, got %v", err)
	}
	if cache.setCalls != 0 {
		t.Fatalf("a failed lookup must not populate the cache")
	}
}

func TestResolver_IdentityIsolation(t *testing.T) {
	dir := &stubDirectory{records: map[string]*ports.UserRecord{
		"a@example.com": {Role: "staff"},
		"b@example.com": {Role: "user"},
	}}
	r := newTestResolver(dir, newMemCache())

	roleA, err := r.Resolve(context.Background(), sessionFor("a@example.com"))
	if err != nil || roleA != domain.RoleStaff {
		t.Fatalf("expected staff for A, got %s err=%v", roleA, err)
	}

	// Switching identities never serves A's cached role to B.
	roleB, err := r.Resolve(context.Background(), sessionFor("b@example.com"))
	if err != nil || roleB != domain.RoleUser {
		t.Fatalf("expected user for B, got %s err=%v", roleB, err)
	}
}

func TestResolver_Invalidate(t *testing.T) {
	dir := &stubDirectory{records: map[string]*ports.UserRecord{
		"a@example.com": {Role: "staff"},
	}}
	cache := newMemCache()
	r := newTestResolver(dir, cache)

	if _, err := r.Resolve(context.Background(), sessionFor("a@example.com")); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if err := r.Invalidate(context.Background(), domain.Identity{Email: "a@example.com"}); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, ok := cache.roles["a@example.com"]; ok {
		t.Fatalf("invalidation must drop the cached role")
	}

	// Next resolve goes back to the directory.
	if _, err := r.Resolve(context.Background(), sessionFor("a@example.com")); err != nil {
		t.Fatalf("Resolve after invalidate returned error: %v", err)
	}
	if dir.lookups != 2 {
		t.Fatalf("expected a fresh lookup after invalidation, got %d", dir.lookups)
	}
}

func TestResolver_CacheReadFailure_TreatedAsMiss(t *testing.T) {
	dir := &stubDirectory{records: map[string]*ports.UserRecord{
		"a@example.com": {Role: "admin"},
	}}
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	r := newTestResolver(dir, cache)

	role, err := r.Resolve(context.Background(), sessionFor("a@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if role != domain.RoleAdmin {
		t.Fatalf("cache failure must fall through to the directory, got %s", role)
	}
}
