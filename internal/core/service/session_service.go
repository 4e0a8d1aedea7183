package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/api/metrics"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

// SessionService owns the edge-session lifecycle: established on login,
// destroyed on logout or when the backend declares the credential invalid.
type SessionService struct {
	idp      ports.IdentityProvider
	idpName  string
	store    ports.SessionStore
	roles    ports.RoleResolver
	audit    ports.AuditRecorder
	fallback time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewSessionService wires the session lifecycle. fallbackTTL bounds sessions
// whose tokens carry no readable expiry.
func NewSessionService(idp ports.IdentityProvider, idpName string, store ports.SessionStore, roles ports.RoleResolver, audit ports.AuditRecorder, fallbackTTL time.Duration, log zerolog.Logger) *SessionService {
	if fallbackTTL <= 0 {
		fallbackTTL = 24 * time.Hour
	}
	return &SessionService{
		idp:      idp,
		idpName:  idpName,
		store:    store,
		roles:    roles,
		audit:    audit,
		fallback: fallbackTTL,
		log:      log,
		now:      time.Now,
	}
}

// WithClock injects the time source. Intended for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Login authenticates against the identity provider and establishes a fresh
// edge session. Any cached role for the identity is invalidated first so a
// renewed session never inherits authorization state from a previous one.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	identity, token, expiry, err := s.idp.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthFailuresTotal.WithLabelValues("bad_credentials").Inc()
		}
		return nil, err
	}

	now := s.now()
	if expiry.IsZero() {
		expiry = s.tokenExpiry(token, now)
	}

	sess := &domain.Session{
		ID:          uuid.NewString(),
		Identity:    identity,
		AccessToken: token,
		ExpiresAt:   expiry,
		CreatedAt:   now,
	}

	if err := s.roles.Invalidate(ctx, identity); err != nil {
		s.log.Warn().Err(err).Str("email", identity.Email).Msg("role cache invalidation failed on login")
	}
	if err := s.store.Save(ctx, sess, expiry.Sub(now)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.SessionsCreatedTotal.WithLabelValues(s.idpName).Inc()
	s.record(ctx, sess, domain.AuditSessionCreated, "")
	return sess, nil
}

// Logout destroys the session for the given edge token. Idempotent: an
// unknown or already-destroyed session is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return s.destroy(ctx, sess, domain.AuditSessionDestroyed, "user_logout")
}

// ForceLogout destroys a session whose credential the backend rejected. The
// API client guarantees at most one invocation per invalidated session;
// destruction itself is idempotent regardless.
func (s *SessionService) ForceLogout(ctx context.Context, sess *domain.Session, reason string) error {
	if sess == nil {
		return nil
	}
	return s.destroy(ctx, sess, domain.AuditSessionInvalidated, reason)
}

// Current returns the active session for the edge token. An expired session
// is destroyed on sight and reported as domain.ErrSessionExpired.
func (s *SessionService) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.store.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			metrics.AuthFailuresTotal.WithLabelValues("session_not_found").Inc()
		}
		return nil, err
	}
	if !sess.IsAuthenticated(s.now()) {
		metrics.AuthFailuresTotal.WithLabelValues("session_expired").Inc()
		_ = s.destroy(ctx, sess, domain.AuditSessionInvalidated, "token_expired")
		return nil, domain.ErrSessionExpired
	}
	return sess, nil
}

func (s *SessionService) destroy(ctx context.Context, sess *domain.Session, event, reason string) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.roles.Invalidate(ctx, sess.Identity); err != nil {
		s.log.Warn().Err(err).Str("email", sess.Identity.Email).Msg("role cache invalidation failed")
	}
	if err := s.idp.Revoke(ctx, sess.Identity); err != nil {
		s.log.Debug().Err(err).Msg("identity provider revoke failed")
	}
	s.record(ctx, sess, event, reason)
	return nil
}

func (s *SessionService) record(ctx context.Context, sess *domain.Session, event, reason string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, domain.AuditEvent{
		SessionID: sess.ID,
		UID:       sess.Identity.UID,
		Email:     sess.Identity.Email,
		Event:     event,
		Reason:    reason,
		At:        s.now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("audit record failed")
	}
}

// tokenExpiry reads the exp claim from a JWT-shaped token without verifying
// it; verification is the backend's job. Opaque tokens fall back to the
// configured TTL.
func (s *SessionService) tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(s.fallback)
}
