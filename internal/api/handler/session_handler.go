package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

type SessionHandler struct {
	sessions ports.Sessions
	roles    ports.RoleResolver
}

func NewSessionHandler(sessions ports.Sessions, roles ports.RoleResolver) *SessionHandler {
	return &SessionHandler{sessions: sessions, roles: roles}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token     string          `json:"session_token"`
	Identity  domain.Identity `json:"identity"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type viewerResponse struct {
	Identity domain.Identity `json:"identity"`
	Role     domain.Role     `json:"role"`
}

// Login authenticates the viewer and establishes an edge session.
//
// @Summary      Sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /session [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	sess, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sessionResponse{
		Token:     sess.ID,
		Identity:  sess.Identity,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Logout destroys the presented session. Always succeeds: logging out an
// already-dead session is a no-op.
//
// @Summary      Sign out
// @Tags         session
// @Success      204
// @Router       /session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	token := bearerToken(c)
	if token != "" {
		if err := h.sessions.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the viewer's identity and resolved role. The role is resolved
// to completion before responding; a viewer is never reported with a role
// that was not explicitly confirmed.
//
// @Summary      Current viewer
// @Tags         session
// @Produce      json
// @Success      200  {object}  viewerResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /session/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	role, err := h.roles.Resolve(c.Request().Context(), sess)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, viewerResponse{Identity: sess.Identity, Role: role})
}
