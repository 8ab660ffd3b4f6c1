package account

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/validate"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

const pagePath = "/account"

// Handler serves the account page.
type Handler struct {
	now func() time.Time
}

// NewHandler creates a new account handler.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// Show renders the profile and usage totals (GET /account).
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	form := formFor(w.Session.Snapshot().Identity)
	return middleware.Render(c, http.StatusOK, Page(form, nil, h.stats(c, w)))
}

// Update saves profile changes (POST /account).
func (h *Handler) Update(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	var form ProfileForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	current := formFor(w.Session.Snapshot().Identity)
	upd, changed, errs := form.update(current)
	if !errs.OK() {
		return h.renderForm(c, w, form, errs)
	}
	if !changed {
		w.Notify.Info("No changes", "Your profile is already up to date")
		middleware.Notified(c)
		return h.renderForm(c, w, form, nil)
	}

	if err := w.Session.UpdateIdentity(c.Request().Context(), upd); err != nil {
		slog.Warn("updating profile failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to update profile", apperror.SafeMessage(err))
		middleware.Notified(c)
		return h.renderForm(c, w, form, nil)
	}

	w.Notify.Success("Profile Updated", "Your changes have been saved")
	return middleware.Redirect(c, pagePath)
}

// Export downloads the account data as JSON (GET /account/export).
func (h *Handler) Export(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	data, err := w.API.ExportAccountData(c.Request().Context())
	if err != nil {
		slog.Warn("exporting account data failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Export failed", apperror.Normalize(err, "Please try again"))
		return middleware.Redirect(c, pagePath)
	}

	name := fmt.Sprintf("costpilot-export-%s.json", h.now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (h *Handler) renderForm(c echo.Context, w *workspace.Workspace, form ProfileForm, errs validate.Errors) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, profileForm(form, errs))
	}
	return middleware.Render(c, http.StatusOK, Page(form, errs, h.stats(c, w)))
}

// stats loads the usage totals; nil when unavailable.
func (h *Handler) stats(c echo.Context, w *workspace.Workspace) *apiclient.AccountStats {
	s, err := w.API.AccountStats(c.Request().Context())
	if err != nil {
		slog.Warn("loading account stats failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to load usage", apperror.Normalize(err, "Please try refreshing the page"))
		return nil
	}
	return s
}
