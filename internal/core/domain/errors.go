package domain

import "errors"

var (
	// ErrAuthExpired: the backend rejected an authenticated call with 401 or
	// 403. The session has been (or is being) destroyed; retrying is useless
	// until the viewer signs in again.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrForbidden: the viewer is authenticated but lacks the required role.
	ErrForbidden = errors.New("access forbidden")

	// ErrNetworkUnavailable: the request never reached the backend.
	ErrNetworkUnavailable = errors.New("backend unreachable")

	// ErrServerError: the backend answered with a 5xx status.
	ErrServerError = errors.New("backend server error")

	// ErrRoleUnresolved: the viewer's role could not be determined. Gates
	// treat this as "not yet authorized", never as an elevated role.
	ErrRoleUnresolved = errors.New("role not resolved")

	// ErrInvalidCredentials: the identity provider rejected the login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound: no session exists for the presented edge token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired: the session existed but its credential has expired.
	ErrSessionExpired = errors.New("session expired")
)
