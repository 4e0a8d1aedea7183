package roles

import (
	"context"
	"net/url"

	"github.com/urbaninsight/insight-edge/internal/apiclient"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

// BackendDirectory fetches user records from the backend through the
// authenticated API client, so a rejected credential during a role fetch
// triggers the same forced-logout path as any other backend call.
type BackendDirectory struct {
	clients *apiclient.Manager
}

func NewBackendDirectory(clients *apiclient.Manager) *BackendDirectory {
	return &BackendDirectory{clients: clients}
}

// Lookup performs GET /users/{email} under the session's own client binding.
func (d *BackendDirectory) Lookup(ctx context.Context, sess *domain.Session) (*ports.UserRecord, error) {
	client := d.clients.For(sess)
	return apiclient.GetJSON[ports.UserRecord](ctx, client, "/users/"+url.PathEscape(sess.Identity.Email))
}
