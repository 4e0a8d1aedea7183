package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/service"
)

// sessionKey is the echo context key the gate stores the session under.
const sessionKey = "session"

// RequireAuthenticated admits any viewer with an active session.
func RequireAuthenticated(gate *service.GateService, loginPath string) echo.MiddlewareFunc {
	return access(gate, loginPath, domain.RequireAuthenticated)
}

// RequireStaff admits staff and admin viewers.
func RequireStaff(gate *service.GateService, loginPath string) echo.MiddlewareFunc {
	return access(gate, loginPath, domain.RequireStaff)
}

// RequireAdmin admits admin viewers only.
func RequireAdmin(gate *service.GateService, loginPath string) echo.MiddlewareFunc {
	return access(gate, loginPath, domain.RequireAdmin)
}

// access interprets the gate's decision for one route render. The three
// variants above differ only in the requirement they evaluate; the decision
// logic itself lives in the gate service and is shared.
func access(gate *service.GateService, loginPath string, req domain.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			dec, sess := gate.Evaluate(c.Request().Context(), token, req, c.Request().URL.Path)

			switch dec.Outcome {
			case domain.OutcomeAllow:
				c.Set(sessionKey, sess)
				return next(c)
			case domain.OutcomeRedirectLogin:
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":     "authentication required",
					"login":     loginPath,
					"return_to": dec.ReturnTo,
				})
			case domain.OutcomeForbidden:
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			default:
				// Pending after full resolution means role state is unknown;
				// never render protected content in that state.
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "authorization pending"})
			}
		}
	}
}

// bearerToken extracts the edge-session token from the Authorization header.
// Returns "" when absent or malformed; the gate treats both as anonymous.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
