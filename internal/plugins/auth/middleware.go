package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/session"
)

// RequireAuth returns middleware that lets a request through only when its
// workspace holds a signed-in session. Anonymous browsers are sent to the
// login page (HX-Redirect for HTMX, 303 otherwise).
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			w := middleware.GetWorkspace(c)
			if w == nil || !w.Session.IsAuthenticated() {
				return middleware.Redirect(c, loginPath)
			}
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetIdentity returns the signed-in identity, or nil for anonymous requests.
func GetIdentity(c echo.Context) *session.Identity {
	w := middleware.GetWorkspace(c)
	if w == nil {
		return nil
	}
	return w.Session.Snapshot().Identity
}
