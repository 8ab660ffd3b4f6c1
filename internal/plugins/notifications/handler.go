// Package notifications exposes a workspace's notification queue to the
// browser. The layout polls the list partial; toasts are dismissed one by
// one or all at once.
package notifications

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/middleware"
)

// Handler serves the notification partial and its actions.
type Handler struct{}

// NewHandler creates a new notifications handler.
func NewHandler() *Handler {
	return &Handler{}
}

// List renders the live entries (GET /notifications).
func (h *Handler) List(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	return middleware.Render(c, http.StatusOK, List(w.Queue.List()))
}

// Dismiss removes one entry (POST /notifications/:id/dismiss). Unknown ids
// are ignored; the entry may already have expired.
func (h *Handler) Dismiss(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	w.Queue.Remove(c.Param("id"))
	return h.done(c)
}

// Clear removes every entry (POST /notifications/clear).
func (h *Handler) Clear(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	w.Queue.Clear()
	return h.done(c)
}

func (h *Handler) done(c echo.Context) error {
	if middleware.IsHTMX(c) {
		return h.List(c)
	}
	return c.Redirect(http.StatusSeeOther, backTarget(c.Request().Referer()))
}

// backTarget returns the local path of referer, or "/" when it is missing
// or points elsewhere.
func backTarget(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
