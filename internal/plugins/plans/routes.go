package plans

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the plan picker on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/plan-selection", h.Show)
	g.POST("/plan-selection", h.Select)
}
