package middleware

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout-relevant data from the Echo context (workspace
// session, CSRF token, current path) into Go's context.Context so templ
// components can read it. Registered once at startup in app/routes.go.
//
// The callback keeps this package free of template imports.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsHTMX returns true if the current request was initiated by HTMX and is NOT
// a boosted navigation. Boosted requests expect full pages.
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true" &&
		c.Request().Header.Get("HX-Boosted") != "true"
}

// Redirect sends the browser to target: an HX-Redirect header for HTMX
// requests, a 303 otherwise. A pending login redirect wins over target.
func Redirect(c echo.Context, target string) error {
	if w := GetWorkspace(c); w != nil {
		if pending, ok := w.TakeRedirect(); ok {
			target = pending
		}
	}
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// Render writes a templ component to the response with the given status code.
//
// If an API call made while handling the request came back 401, the
// workspace holds a pending login redirect; Render sends that redirect
// instead of the page so a view never renders half-empty data.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	if w := GetWorkspace(c); w != nil {
		if target, ok := w.TakeRedirect(); ok {
			return Redirect(c, target)
		}
	}

	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}

// NotifyEvent is the HTMX event that makes the notification area refresh
// immediately instead of on its next poll.
const NotifyEvent = "notify"

// Notified marks an HTMX response as having queued a notification.
func Notified(c echo.Context) {
	if IsHTMX(c) {
		c.Response().Header().Set("HX-Trigger", NotifyEvent)
	}
}
