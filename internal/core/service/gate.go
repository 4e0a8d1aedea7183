package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/api/metrics"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

// SessionState is the gate's view of session lookup: still loading, absent,
// or an active session.
type SessionState struct {
	loading bool
	sess    *domain.Session
}

func SessionLoading() SessionState { return SessionState{loading: true} }

func SessionAbsent() SessionState { return SessionState{} }

func ActiveSession(s *domain.Session) SessionState { return SessionState{sess: s} }

// RoleState is the gate's view of role resolution. Only an explicit
// successful lookup produces a resolved state; everything else stays
// unresolved and fails closed.
type RoleState struct {
	resolved bool
	role     domain.Role
}

func RoleUnresolved() RoleState { return RoleState{} }

func RoleResolved(r domain.Role) RoleState { return RoleState{resolved: true, role: r} }

// Decide classifies one protected-route evaluation. Rules, in order:
//
//  1. session still loading            → pending
//  2. no authenticated session         → redirect to login, carrying path
//  3. role needed but unresolved       → pending
//  4. resolved role does not satisfy   → forbidden
//  5. otherwise                        → allow
//
// Pure function of its inputs; callers re-evaluate after resolving whatever
// was pending.
func Decide(sess SessionState, role RoleState, req domain.Requirement, path string, now time.Time) domain.AccessDecision {
	if sess.loading {
		return domain.AccessDecision{Outcome: domain.OutcomePending}
	}
	if !sess.sess.IsAuthenticated(now) {
		return domain.AccessDecision{Outcome: domain.OutcomeRedirectLogin, ReturnTo: path}
	}
	if req.NeedsRole() {
		if !role.resolved {
			return domain.AccessDecision{Outcome: domain.OutcomePending}
		}
		if !role.role.Satisfies(req.Role()) {
			return domain.AccessDecision{Outcome: domain.OutcomeForbidden}
		}
	}
	return domain.AccessDecision{Outcome: domain.OutcomeAllow}
}

// GateService evaluates access for protected routes against the live session
// and role state.
type GateService struct {
	sessions ports.Sessions
	roles    ports.RoleResolver
	log      zerolog.Logger
	now      func() time.Time
}

func NewGateService(sessions ports.Sessions, roles ports.RoleResolver, log zerolog.Logger) *GateService {
	return &GateService{sessions: sessions, roles: roles, log: log, now: time.Now}
}

// WithClock injects the time source. Intended for tests.
func (g *GateService) WithClock(now func() time.Time) *GateService {
	g.now = now
	return g
}

// Evaluate loads the session for the edge token, resolves the role when the
// requirement demands one, and returns the resulting decision plus the
// session when access is allowed. Role resolution runs to completion
// (success or definitive failure) before a role-gated route leaves pending;
// a failed resolution is reported as pending, never as an elevated role.
func (g *GateService) Evaluate(ctx context.Context, sessionID string, req domain.Requirement, path string) (domain.AccessDecision, *domain.Session) {
	dec, sess := g.evaluate(ctx, sessionID, req, path)
	metrics.GateDecisionsTotal.WithLabelValues(req.String(), dec.Outcome.String()).Inc()
	return dec, sess
}

func (g *GateService) evaluate(ctx context.Context, sessionID string, req domain.Requirement, path string) (domain.AccessDecision, *domain.Session) {
	if sessionID == "" {
		return Decide(SessionAbsent(), RoleUnresolved(), req, path, g.now()), nil
	}

	sess, err := g.sessions.Current(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
			return Decide(SessionAbsent(), RoleUnresolved(), req, path, g.now()), nil
		}
		// Session lookup failed for an operational reason: the state is
		// unknown, so the gate stays pending rather than failing open.
		g.log.Error().Err(err).Msg("session lookup failed")
		return Decide(SessionLoading(), RoleUnresolved(), req, path, g.now()), nil
	}

	dec := Decide(ActiveSession(sess), RoleUnresolved(), req, path, g.now())
	if dec.Outcome != domain.OutcomePending {
		return dec, allowed(dec, sess)
	}

	role, err := g.roles.Resolve(ctx, sess)
	if err != nil {
		// The session may have been destroyed mid-resolution (401 on the
		// role fetch); re-check so the viewer is redirected, not stalled.
		if _, cerr := g.sessions.Current(ctx, sessionID); cerr != nil {
			return Decide(SessionAbsent(), RoleUnresolved(), req, path, g.now()), nil
		}
		g.log.Warn().Err(err).Str("email", sess.Identity.Email).Msg("role resolution failed, gate stays pending")
		return domain.AccessDecision{Outcome: domain.OutcomePending}, nil
	}

	dec = Decide(ActiveSession(sess), RoleResolved(role), req, path, g.now())
	return dec, allowed(dec, sess)
}

func allowed(dec domain.AccessDecision, sess *domain.Session) *domain.Session {
	if dec.Outcome == domain.OutcomeAllow {
		return sess
	}
	return nil
}
