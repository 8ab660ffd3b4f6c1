package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/middleware"
)

// Handler serves the dashboard page.
type Handler struct{}

// NewHandler creates a new dashboard handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Show loads the three dashboard sources in parallel and renders whatever
// arrived (GET /dashboard). Any failure is reported once as a notification.
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	ctx := c.Request().Context()

	var o Overview
	var g errgroup.Group
	g.Go(func() error {
		a, err := w.API.UsageAnalytics(ctx, apiclient.DefaultPeriodDays)
		o.Analytics = a
		return err
	})
	g.Go(func() error {
		b, err := w.API.BudgetStatus(ctx)
		o.Budgets = b
		return err
	})
	g.Go(func() error {
		k, err := w.API.APIKeys(ctx)
		o.Keys = k
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Warn("dashboard load failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to load dashboard", "Please try refreshing the page")
	}

	return middleware.Render(c, http.StatusOK, Page(o))
}
