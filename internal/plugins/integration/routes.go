package integration

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the integration page on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/integration", h.Show)
	g.GET("/integration/token", h.RevealToken)
}
