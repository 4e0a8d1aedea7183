// Package roles resolves a viewer's authorization level from the backend's
// user records, with an identity-keyed cache so role state can never leak
// between accounts.
package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/api/metrics"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// Cache is the role cache consumed by the resolver. Keys are identity
// emails; entries expire on TTL and are dropped explicitly when the identity
// behind a session changes.
type Cache interface {
	Get(ctx context.Context, email string) (domain.Role, bool, error)
	Set(ctx context.Context, email string, role domain.Role, ttl time.Duration) error
	Delete(ctx context.Context, email string) error
}

// Resolver implements ports.RoleResolver: cache first, then the backend user
// directory. Any lookup failure is reported as domain.ErrRoleUnresolved:
// the resolver never defaults to a role on error, so gates stay closed until
// an explicit successful response arrives.
type Resolver struct {
	dir   ports.UserDirectory
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewResolver(dir ports.UserDirectory, cache Cache, ttl time.Duration, log zerolog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Resolver{dir: dir, cache: cache, ttl: ttl, log: log}
}

// Resolve returns the role for the session's identity. Only a successful
// directory response may yield staff or admin; a 2xx record with an absent
// or unknown role field collapses to "user".
func (r *Resolver) Resolve(ctx context.Context, sess *domain.Session) (domain.Role, error) {
	if sess == nil {
		return domain.RoleUnknown, domain.ErrRoleUnresolved
	}
	email := sess.Identity.Email

	if role, ok, err := r.cache.Get(ctx, email); err != nil {
		metrics.RoleCacheTotal.WithLabelValues("error").Inc()
		r.log.Warn().Err(err).Str("email", email).Msg("role cache read failed")
	} else if ok {
		metrics.RoleCacheTotal.WithLabelValues("hit").Inc()
		return role, nil
	} else {
		metrics.RoleCacheTotal.WithLabelValues("miss").Inc()
	}

	record, err := r.dir.Lookup(ctx, sess)
	if err != nil {
		return domain.RoleUnknown, fmt.Errorf("%w: %v", domain.ErrRoleUnresolved, err)
	}

	role := domain.ParseRole(record.Role)
	if err := r.cache.Set(ctx, email, role, r.ttl); err != nil {
		r.log.Warn().Err(err).Str("email", email).Msg("role cache write failed")
	}
	return role, nil
}

// Invalidate drops the cached role for an identity.
func (r *Resolver) Invalidate(ctx context.Context, identity domain.Identity) error {
	return r.cache.Delete(ctx, identity.Email)
}
