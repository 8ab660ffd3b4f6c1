package dashboard

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the dashboard on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/dashboard", h.Show)
}
