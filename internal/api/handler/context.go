package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

// ctxSession extracts the session injected by the access gate middleware and
// fast-fails when a handler is reached without one: presence proves the gate
// ran, and no protected handler may execute without it.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, _ := c.Get("session").(*domain.Session)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sess, nil
}

// bearerToken reads the edge-session token from the Authorization header,
// returning "" when absent or malformed.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
