package ports

import (
	"context"
	"time"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// SessionStore persists edge sessions keyed by their opaque token.
type SessionStore interface {
	// Save stores the session with the given time-to-live.
	Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error
	// Find returns the session for id, or domain.ErrSessionNotFound.
	Find(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}

// Sessions is the session lifecycle surface consumed by handlers and gates.
type Sessions interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	// ForceLogout destroys a session the backend has declared invalid.
	// Idempotent: repeated calls for the same session are harmless.
	ForceLogout(ctx context.Context, sess *domain.Session, reason string) error
	// Current returns the active session for the edge token, destroying it
	// first when the credential has expired (domain.ErrSessionExpired).
	Current(ctx context.Context, sessionID string) (*domain.Session, error)
}
