package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/urbaninsight/insight-edge/internal/api/handler"
	"github.com/urbaninsight/insight-edge/internal/api/middleware"
	"github.com/urbaninsight/insight-edge/internal/apiclient"
	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
	"github.com/urbaninsight/insight-edge/internal/core/service"
	"github.com/urbaninsight/insight-edge/internal/infrastructure/config"
	redisdb "github.com/urbaninsight/insight-edge/internal/infrastructure/db/redis"
	"github.com/urbaninsight/insight-edge/internal/roles"
)

// Dependencies carries the externally-constructed collaborators the router
// wires together.
type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger
	Redis  *redis.Client
	Mongo  *mongo.Database
	IDP    ports.IdentityProvider
	Audit  ports.AuditRecorder
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, cfg.LoginPath)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("insight_edge"))

	// --- Outbound client + session core ---
	// The client manager's forced-logout hook needs the session service,
	// which itself needs the role resolver built on the manager. The hook
	// binds late through the captured pointer to break the construction
	// cycle; by the time any request flows, sessions is set.
	var sessions *service.SessionService
	nav := NewLoginNavigator(deps.Log, cfg.LoginPath)
	clients := apiclient.NewManager(
		cfg.Backend.URL,
		nav,
		func(ctx context.Context, sess *domain.Session, reason string) {
			if sessions != nil {
				_ = sessions.ForceLogout(ctx, sess, reason)
			}
		},
		apiclient.WithLogger(deps.Log),
		apiclient.WithLoginPath(cfg.LoginPath),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
	)

	sessionStore := redisdb.NewSessionStore(deps.Redis)
	roleCache := redisdb.NewRoleCache(deps.Redis)
	directory := roles.NewBackendDirectory(clients)
	resolver := roles.NewResolver(directory, roleCache, cfg.Session.RoleCacheTTL, deps.Log)
	sessions = service.NewSessionService(deps.IDP, cfg.IDP.Mode, sessionStore, resolver, deps.Audit, cfg.Session.FallbackTTL, deps.Log)
	gate := service.NewGateService(sessions, resolver, deps.Log)

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(sessions, resolver)
	proxyHandler := handler.NewProxyHandler(clients)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Redis, deps.Mongo)

	// --- Session routes ---
	e.POST("/session", sessionHandler.Login)
	e.DELETE("/session", sessionHandler.Logout)
	e.GET("/session/me", sessionHandler.Me, middleware.RequireAuthenticated(gate, cfg.LoginPath))

	// --- Gated backend passthroughs ---
	authed := e.Group("/api", middleware.RequireAuthenticated(gate, cfg.LoginPath))
	authed.GET("/issues", proxyHandler.ListIssues)
	authed.POST("/issues", proxyHandler.CreateIssue)
	authed.GET("/profile", proxyHandler.Profile)

	staff := e.Group("/api/staff", middleware.RequireStaff(gate, cfg.LoginPath))
	staff.GET("/issues", proxyHandler.StaffIssues)

	admin := e.Group("/api/admin", middleware.RequireAdmin(gate, cfg.LoginPath))
	admin.GET("/users", proxyHandler.AdminUsers)

	// --- Probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
