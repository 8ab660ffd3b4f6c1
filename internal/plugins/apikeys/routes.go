package apikeys

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the API key pages on an authenticated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/api-keys", h.List)
	g.POST("/api-keys", h.Create)
	g.DELETE("/api-keys/:id", h.Delete)
	g.POST("/api-keys/:id/delete", h.Delete)
}
