package plans

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/session"
)

const (
	pagePath      = "/plan-selection"
	dashboardPath = "/dashboard"
)

// Handler serves the plan picker.
type Handler struct{}

// NewHandler creates a new plans handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Show renders the picker (GET /plan-selection).
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	current := session.PlanFree
	if id := w.Session.Snapshot().Identity; id != nil {
		current = id.Plan
	}
	return middleware.Render(c, http.StatusOK, Page(current))
}

// Select chooses a plan (POST /plan-selection). Paid plans only get an
// info notification. The free plan is recorded and the user moves on to
// the dashboard even when recording fails; the account already defaults
// to free.
func (h *Handler) Select(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	p, ok := find(c.FormValue("plan"))
	if !ok {
		return apperror.NewBadRequest("unknown plan")
	}
	if !p.Available {
		w.Notify.Info("Demo Mode", "Only the Free plan is available during demo. Paid plans coming soon!")
		if middleware.IsHTMX(c) {
			middleware.Notified(c)
			return c.NoContent(http.StatusNoContent)
		}
		return middleware.Redirect(c, pagePath)
	}

	if err := w.Session.SelectPlan(c.Request().Context(), session.PlanFree); err != nil {
		slog.Warn("recording plan selection failed",
			slog.String("workspace", w.ID),
			slog.String("plan", p.ID),
			slog.Any("error", err),
		)
	}
	w.Notify.Success("Welcome!", "You're all set with the Free plan. Start optimizing your AI costs!")
	return middleware.Redirect(c, dashboardPath)
}
