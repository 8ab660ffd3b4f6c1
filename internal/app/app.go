// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (workspace registry, metrics registry,
// Echo instance) and wires together all plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/session"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
	"github.com/keyxmakerx/costpilot/internal/templates/pages"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

// HealthChecker reports whether the remote cost API is reachable.
type HealthChecker interface {
	Health(ctx context.Context) (*apiclient.HealthStatus, error)
}

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Registry owns every live browser workspace.
	Registry *workspace.Registry

	// Health probes the cost API for /readyz. Nil reports ready.
	Health HealthChecker

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, registry *workspace.Registry, health HealthChecker, gatherer prometheus.Gatherer) *App {
	e := echo.New()

	// We log our own startup line.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() feeds the login rate limiter, so only configured proxies
	// may rewrite the client address.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config:   cfg,
		Registry: registry,
		Health:   health,
		Gatherer: gatherer,
		Echo:     e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler
	middleware.LayoutInjector = injectLayout

	// CSS and images.
	e.Static("/static", "static")

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (CSRF) runs last.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	a.Echo.Use(middleware.RequestLogger())

	// HSTS only makes sense behind TLS, which development never has.
	a.Echo.Use(middleware.SecurityHeaders(!a.Config.IsDevelopment()))

	// CSRF -- double-submit cookie on state-changing requests. Probes and
	// the scrape endpoint carry no browser cookies.
	a.Echo.Use(middleware.CSRF("/healthz", "/readyz", "/metrics"))
}

// injectLayout copies the workspace session and CSRF token into the render
// context so the page shell can show the signed-in header.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)

	w := middleware.GetWorkspace(c)
	if w == nil {
		return ctx
	}
	snap := w.Session.Snapshot()
	if !snap.IsAuthenticated() {
		return layouts.SetIsAuthenticated(ctx, false)
	}
	ctx = layouts.SetIsAuthenticated(ctx, true)
	ctx = layouts.SetUserName(ctx, snap.Identity.DisplayName)
	ctx = layouts.SetUserEmail(ctx, snap.Identity.Email)
	return layouts.SetUserPlan(ctx, planLabel(snap.Identity.Plan))
}

func planLabel(p session.PlanTier) string {
	switch p {
	case session.PlanBasic:
		return "Basic"
	case session.PlanPremium:
		return "Premium"
	case session.PlanEnterprise:
		return "Enterprise"
	default:
		return "Free"
	}
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to appropriate HTTP responses and renders the error page.
//
// For HTMX partial requests that hit errors, we set HX-Retarget and
// HX-Reswap headers so the error page replaces the full body instead of
// being swapped into a partial target.
//
// A 401 sends the browser to the login page.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message

		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		// Echo's own HTTP errors, e.g. 404 from the router.
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = defaultErrorMessage(code)
			}
		} else {
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	if code == http.StatusUnauthorized {
		if rerr := middleware.Redirect(c, workspace.LoginPath); rerr != nil {
			slog.Debug("login redirect failed", slog.Any("error", rerr))
		}
		return
	}

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	if rerr := middleware.Render(c, code, pages.ErrorPage(code, message)); rerr != nil {
		slog.Debug("error page render failed", slog.Any("error", rerr))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist or has been moved."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusBadGateway:
		return "The cost API returned an invalid response."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Costpilot server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("api", a.Config.API.BaseURL),
	)
	return a.Echo.Start(addr)
}

// Shutdown stops the HTTP server, letting in-flight requests finish.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
