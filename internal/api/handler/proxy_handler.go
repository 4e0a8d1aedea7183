package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/urbaninsight/insight-edge/internal/apiclient"
)

// ProxyHandler forwards gated routes to the backend API through the
// session's authenticated client, so every forwarded call carries the
// backend bearer token and participates in the forced-logout contract.
// No backend logic lives here: these are passthroughs.
type ProxyHandler struct {
	clients *apiclient.Manager
}

func NewProxyHandler(clients *apiclient.Manager) *ProxyHandler {
	return &ProxyHandler{clients: clients}
}

// ListIssues forwards GET /api/issues → backend GET /issues.
func (h *ProxyHandler) ListIssues(c echo.Context) error {
	return h.forward(c, http.MethodGet, withQuery("/issues", c))
}

// CreateIssue forwards POST /api/issues → backend POST /issues.
func (h *ProxyHandler) CreateIssue(c echo.Context) error {
	return h.forward(c, http.MethodPost, "/issues")
}

// Profile forwards GET /api/profile → backend GET /users/{email} for the
// viewer's own identity.
func (h *ProxyHandler) Profile(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return h.forward(c, http.MethodGet, "/users/"+url.PathEscape(sess.Identity.Email))
}

// StaffIssues forwards GET /api/staff/issues → backend GET /staff/issues.
func (h *ProxyHandler) StaffIssues(c echo.Context) error {
	return h.forward(c, http.MethodGet, withQuery("/staff/issues", c))
}

// AdminUsers forwards GET /api/admin/users → backend GET /users.
func (h *ProxyHandler) AdminUsers(c echo.Context) error {
	return h.forward(c, http.MethodGet, withQuery("/users", c))
}

func (h *ProxyHandler) forward(c echo.Context, method, backendPath string) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	client := h.clients.For(sess)

	header := http.Header{}
	if ct := c.Request().Header.Get(echo.HeaderContentType); ct != "" {
		header.Set(echo.HeaderContentType, ct)
	}
	if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		header.Set(echo.HeaderXRequestID, rid)
	}

	resp, err := client.Do(c.Request().Context(), method, backendPath, c.Request().Body, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Stream(resp.StatusCode, contentType, resp.Body)
}

// withQuery re-attaches the inbound query string to the backend path.
func withQuery(path string, c echo.Context) string {
	if q := c.QueryString(); q != "" {
		return path + "?" + q
	}
	return path
}
