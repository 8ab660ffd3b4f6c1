package apikeys

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/validate"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

const pagePath = "/api-keys"

// Handler serves the API key pages.
type Handler struct{}

// NewHandler creates a new API key handler.
func NewHandler() *Handler {
	return &Handler{}
}

// List renders the key list and the add form (GET /api-keys).
func (h *Handler) List(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	keys := h.load(c, w)
	return middleware.Render(c, http.StatusOK, Page(keys, AddKeyRequest{Provider: apiclient.Providers[0]}, nil))
}

// Create stores a new provider key (POST /api-keys).
func (h *Handler) Create(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	var req AddKeyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req.normalize()

	if errs := validateAddKey(&req); !errs.OK() {
		if req.Name == "" || req.Provider == "" || req.APIKey == "" {
			w.Notify.Error("All fields are required", "Please fill in all fields")
			middleware.Notified(c)
		}
		return h.renderForm(c, w, req, errs)
	}

	if _, err := w.API.AddAPIKey(c.Request().Context(), req.toAPI()); err != nil {
		slog.Warn("adding api key failed",
			slog.String("workspace", w.ID),
			slog.String("provider", req.Provider),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to add API key", apperror.Normalize(err, "Please try again"))
		middleware.Notified(c)
		return h.renderForm(c, w, req, nil)
	}

	w.Notify.Success("API Key Added", "Your API key has been securely stored")
	return h.done(c, w)
}

// Delete removes a key (DELETE /api-keys/:id, or POST .../delete from a
// plain form).
func (h *Handler) Delete(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperror.NewBadRequest("invalid key id")
	}

	if _, err := w.API.DeleteAPIKey(c.Request().Context(), id); err != nil {
		slog.Warn("deleting api key failed",
			slog.String("workspace", w.ID),
			slog.Int64("key_id", id),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to delete API key", apperror.Normalize(err, "Please try again"))
	} else {
		w.Notify.Success("API Key Deleted", "The API key has been removed")
	}
	return h.done(c, w)
}

// done finishes a successful mutation: HTMX gets the refreshed list, a
// plain form post is redirected back to the page.
func (h *Handler) done(c echo.Context, w *workspace.Workspace) error {
	if !middleware.IsHTMX(c) {
		return middleware.Redirect(c, pagePath)
	}
	middleware.Notified(c)
	keys := h.load(c, w)
	return middleware.Render(c, http.StatusOK, Section(keys, AddKeyRequest{Provider: apiclient.Providers[0]}, nil))
}

// renderForm re-renders after a rejected add. The key itself is never
// echoed back.
func (h *Handler) renderForm(c echo.Context, w *workspace.Workspace, req AddKeyRequest, errs validate.Errors) error {
	req.APIKey = ""
	keys := h.load(c, w)
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, Section(keys, req, errs))
	}
	return middleware.Render(c, http.StatusOK, Page(keys, req, errs))
}

// load fetches the key list. A failure is reported as a notification and
// an empty list is shown.
func (h *Handler) load(c echo.Context, w *workspace.Workspace) []apiclient.APIKey {
	keys, err := w.API.APIKeys(c.Request().Context())
	if err != nil {
		slog.Warn("loading api keys failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to load API keys", apperror.Normalize(err, "Please try again"))
		return nil
	}
	return keys
}
