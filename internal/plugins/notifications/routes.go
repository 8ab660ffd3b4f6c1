package notifications

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the notification endpoints on the workspace group.
// They are public: anonymous pages show toasts too.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/notifications", h.List)
	g.POST("/notifications/clear", h.Clear)
	g.POST("/notifications/:id/dismiss", h.Dismiss)
}
