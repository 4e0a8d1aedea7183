package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Login
// and ReturnTo are populated only when the viewer must re-authenticate.
type errorResponse struct {
	Error    string `json:"error"`
	Login    string `json:"login,omitempty"`
	ReturnTo string `json:"return_to,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Renders every expired-session failure, wherever it surfaced, as the
//     same 401 envelope pointing the viewer at the login view.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger, loginPath string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, loginPath, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, loginPath string, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrAuthExpired),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorResponse{
			Error:    "session expired",
			Login:    loginPath,
			ReturnTo: c.Request().URL.Path,
		}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "forbidden"}
	case errors.Is(err, domain.ErrRoleUnresolved):
		return http.StatusServiceUnavailable, errorResponse{Error: "authorization pending"}
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return http.StatusBadGateway, errorResponse{Error: "backend unreachable"}
	case errors.Is(err, domain.ErrServerError):
		return http.StatusBadGateway, errorResponse{Error: "backend error"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
