package domain

import "time"

// Identity is the opaque user reference supplied by the identity provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Session binds one edge-session token to an identity and the backend bearer
// credential issued for it. There is at most one active Session per edge
// token; a destroyed Session's credential is never attached to a request.
type Session struct {
	ID          string    `json:"id"`
	Identity    Identity  `json:"identity"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAuthenticated reports whether the session carries a usable credential:
// token present and not yet expired at the given instant.
func (s *Session) IsAuthenticated(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
