package budget

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/validate"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

const pagePath = "/budget"

// Handler serves the budget page.
type Handler struct{}

// NewHandler creates a new budget handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Show renders budgets and the create form (GET /budget).
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	return middleware.Render(c, http.StatusOK, Page(h.load(c, w), newForm(), nil))
}

// Create adds a budget (POST /budget).
func (h *Handler) Create(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	var form BudgetForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req, errs := form.parse()
	if !errs.OK() {
		return h.renderForm(c, w, form, errs)
	}

	if _, err := w.API.CreateBudgetSetting(c.Request().Context(), req); err != nil {
		slog.Warn("creating budget failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to create budget", apperror.Normalize(err, "Please try again"))
		middleware.Notified(c)
		return h.renderForm(c, w, form, nil)
	}

	w.Notify.Success("Budget Created", "Your "+req.PeriodType+" budget is now active")
	return h.done(c, w)
}

// ToggleAlerts switches alerts on or off for one budget
// (POST /budget/:id/alerts).
func (h *Handler) ToggleAlerts(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	settings, err := w.API.BudgetSettings(ctx)
	if err != nil {
		w.Notify.Error("Failed to update budget", apperror.Normalize(err, "Please try again"))
		return h.done(c, w)
	}
	s, ok := findSetting(settings, id)
	if !ok {
		return apperror.NewNotFound("budget not found")
	}

	if _, err := w.API.UpdateBudgetSetting(ctx, id, withAlertsToggled(s)); err != nil {
		slog.Warn("updating budget failed",
			slog.String("workspace", w.ID),
			slog.Int64("budget_id", id),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to update budget", apperror.Normalize(err, "Please try again"))
	} else if s.EnableAlerts {
		w.Notify.Info("Alerts Disabled", "You will no longer be alerted for this budget")
	} else {
		w.Notify.Success("Alerts Enabled", "You will be alerted when spending crosses the threshold")
	}
	return h.done(c, w)
}

// Delete removes a budget (DELETE /budget/:id or POST /budget/:id/delete).
func (h *Handler) Delete(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if _, err := w.API.DeleteBudgetSetting(c.Request().Context(), id); err != nil {
		slog.Warn("deleting budget failed",
			slog.String("workspace", w.ID),
			slog.Int64("budget_id", id),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to delete budget", apperror.Normalize(err, "Please try again"))
	} else {
		w.Notify.Success("Budget Deleted", "The budget has been removed")
	}
	return h.done(c, w)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid budget id")
	}
	return id, nil
}

func (h *Handler) done(c echo.Context, w *workspace.Workspace) error {
	if !middleware.IsHTMX(c) {
		return middleware.Redirect(c, pagePath)
	}
	middleware.Notified(c)
	return middleware.Render(c, http.StatusOK, Section(h.load(c, w), newForm(), nil))
}

func (h *Handler) renderForm(c echo.Context, w *workspace.Workspace, form BudgetForm, errs validate.Errors) error {
	list := h.load(c, w)
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, Section(list, form, errs))
	}
	return middleware.Render(c, http.StatusOK, Page(list, form, errs))
}

// load fetches settings and statuses in parallel. On failure the user is
// notified and whatever did load is shown.
func (h *Handler) load(c echo.Context, w *workspace.Workspace) []Row {
	ctx := c.Request().Context()

	var settings []apiclient.BudgetSetting
	var statuses []apiclient.BudgetStatus
	var g errgroup.Group
	g.Go(func() error {
		var err error
		settings, err = w.API.BudgetSettings(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = w.API.BudgetStatus(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("loading budgets failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to load budgets", apperror.Normalize(err, "Please try refreshing the page"))
	}
	return rows(settings, statuses)
}
