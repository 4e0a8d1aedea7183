package ports

import (
	"context"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// RoleResolver resolves the viewer's role from the backend's user record.
// Resolution fails closed: any error is reported as domain.ErrRoleUnresolved
// and gates keep the route pending rather than defaulting to any role.
type RoleResolver interface {
	Resolve(ctx context.Context, sess *domain.Session) (domain.Role, error)
	// Invalidate drops any cached role for the identity. Called whenever the
	// identity behind a session changes or the session is destroyed.
	Invalidate(ctx context.Context, identity domain.Identity) error
}

// UserRecord is the slice of the backend's user document relevant here.
type UserRecord struct {
	Role      string `json:"role"`
	IsPremium bool   `json:"isPremium"`
}

// UserDirectory fetches the backend user record for a session's identity
// (GET /users/{email} through the authenticated client).
type UserDirectory interface {
	Lookup(ctx context.Context, sess *domain.Session) (*UserRecord, error)
}
