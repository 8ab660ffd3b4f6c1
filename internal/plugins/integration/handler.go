package integration

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/middleware"
)

// Handler serves the integration page.
type Handler struct {
	proxyURL string
}

// NewHandler creates a new integration handler. proxyURL is the public
// address of the cost-tracking proxy shown in snippets.
func NewHandler(proxyURL string) *Handler {
	return &Handler{proxyURL: proxyURL}
}

// Show renders the integration page (GET /integration). A failed key load
// is not reported; the page then reads as "no providers connected".
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	keys, err := w.API.APIKeys(c.Request().Context())
	if err != nil {
		slog.Debug("integration: loading api keys failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
	}

	return middleware.Render(c, http.StatusOK, Page(newView(keys, w.Session.Token(), h.proxyURL)))
}

// RevealToken returns the full bearer token in a read-only field
// (GET /integration/token). Only HTMX requests are answered so the token
// never lands in a full page.
func (h *Handler) RevealToken(c echo.Context) error {
	if !middleware.IsHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/integration")
	}
	w := middleware.GetWorkspace(c)
	return middleware.Render(c, http.StatusOK, tokenField(w.Session.Token(), true))
}
