package ports

import (
	"context"
	"time"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// IdentityProvider is the external authentication service. Only its contract
// is consumed here; the production provider lives outside this system.
type IdentityProvider interface {
	// Authenticate exchanges credentials for an identity and a short-lived
	// backend bearer token. Returns domain.ErrInvalidCredentials when the
	// provider rejects the login. A zero expiry means the provider did not
	// report one; callers derive it from the token or fall back to a TTL.
	Authenticate(ctx context.Context, email, password string) (domain.Identity, string, time.Time, error)

	// Revoke tells the provider the identity's tokens are no longer wanted.
	// Best effort: providers with stateless tokens may treat it as a no-op.
	Revoke(ctx context.Context, identity domain.Identity) error
}
