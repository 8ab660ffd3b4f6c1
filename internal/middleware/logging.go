// Package middleware provides HTTP middleware for the Costpilot dashboard.
// Middleware is applied globally (all routes) or per-route group depending
// on the middleware type. See internal/app/routes.go for registration.
package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// quietPaths are polled constantly and logged at debug when they succeed.
var quietPaths = []string{"/notifications", "/healthz", "/readyz", "/metrics"}

// RequestLogger returns middleware that logs one line per request. A
// handler error is passed to the error handler first so the logged status
// is the one the browser received.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}
			if w := GetWorkspace(c); w != nil {
				attrs = append(attrs, slog.String("workspace", w.ID))
			}
			if IsHTMX(c) {
				attrs = append(attrs, slog.Bool("htmx", true))
			}

			slog.LogAttrs(req.Context(), requestLevel(req.URL.Path, status), "request", attrs...)
			return nil
		}
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return slog.LevelDebug
		}
	}
	return slog.LevelInfo
}
