package analytics

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the analytics pages on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/analytics", h.Show)
	g.GET("/analytics/compare", h.Compare)
}
