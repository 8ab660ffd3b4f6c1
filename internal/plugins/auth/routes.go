package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/middleware"
)

// RegisterRoutes sets up the auth routes on the workspace group. They are
// public; RequireAuth is exported separately for the other plugins.
//
// POST endpoints are rate-limited per IP: 10 attempts per minute for login,
// 5 for register.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	g.GET("/register", h.RegisterForm)
	g.POST("/register", h.Register, middleware.RateLimit(5, time.Minute))

	g.POST("/logout", h.Logout)
}
