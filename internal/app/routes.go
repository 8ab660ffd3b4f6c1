package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/metrics"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/plugins/account"
	"github.com/keyxmakerx/costpilot/internal/plugins/analytics"
	"github.com/keyxmakerx/costpilot/internal/plugins/apikeys"
	"github.com/keyxmakerx/costpilot/internal/plugins/auth"
	"github.com/keyxmakerx/costpilot/internal/plugins/budget"
	"github.com/keyxmakerx/costpilot/internal/plugins/dashboard"
	"github.com/keyxmakerx/costpilot/internal/plugins/integration"
	"github.com/keyxmakerx/costpilot/internal/plugins/notifications"
	"github.com/keyxmakerx/costpilot/internal/plugins/plans"
	"github.com/keyxmakerx/costpilot/internal/templates/pages"
)

// readyTimeout bounds the upstream probe behind /readyz.
const readyTimeout = 3 * time.Second

// RegisterRoutes sets up all application routes. It registers the probe
// endpoints directly and delegates to each plugin's route registration.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Probes and metrics (no workspace) ---

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", a.ready)
	if a.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.Gatherer)))
	}

	// --- Workspace routes ---
	// Everything a browser sees runs inside its workspace.
	ws := e.Group("", middleware.Workspaces(a.Registry, a.Config.Auth.SessionTTL, a.Config.TrustedProxies))

	ws.GET("/", func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, pages.Landing())
	})

	// auth plugin (public: login, register, logout)
	auth.RegisterRoutes(ws, auth.NewHandler())

	// Toasts are polled on every page, signed in or not.
	notifications.RegisterRoutes(ws, notifications.NewHandler())

	// Authenticated route group -- all routes below require a session.
	authed := ws.Group("", auth.RequireAuth())

	dashboard.RegisterRoutes(authed, dashboard.NewHandler())
	apikeys.RegisterRoutes(authed, apikeys.NewHandler())
	budget.RegisterRoutes(authed, budget.NewHandler())
	integration.RegisterRoutes(authed, integration.NewHandler(a.Config.API.ProxyPublicURL))
	plans.RegisterRoutes(authed, plans.NewHandler())
	account.RegisterRoutes(authed, account.NewHandler())
	analytics.RegisterRoutes(authed, analytics.NewHandler())

	// The authed group's catch-all would answer unknown paths with the
	// sign-in redirect; they get the 404 page instead.
	ws.RouteNotFound("/*", func(c echo.Context) error {
		return echo.ErrNotFound
	})
}

// ready reports 503 while the cost API is unreachable so a load balancer
// stops routing to an instance that could only render errors.
func (a *App) ready(c echo.Context) error {
	if a.Health == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	status, err := a.Health.Health(ctx)
	if err != nil {
		slog.Warn("readiness probe failed", slog.Any("error", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"api":    "unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"api":    status.Status,
	})
}
