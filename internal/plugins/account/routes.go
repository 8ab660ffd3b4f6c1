package account

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the account page on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/account", h.Show)
	g.POST("/account", h.Update)
	g.GET("/account/export", h.Export)
}
