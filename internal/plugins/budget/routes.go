package budget

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the budget page on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/budget", h.Show)
	g.POST("/budget", h.Create)
	g.POST("/budget/:id/alerts", h.ToggleAlerts)
	g.DELETE("/budget/:id", h.Delete)
	g.POST("/budget/:id/delete", h.Delete)
}
