package analytics

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/middleware"
)

// Handler serves the analytics page.
type Handler struct{}

// NewHandler creates a new analytics handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Show renders trends, recommendations and pricing (GET /analytics?days=N).
func (h *Handler) Show(c echo.Context) error {
	w := middleware.GetWorkspace(c)
	ctx := c.Request().Context()

	r := Report{Days: parsePeriod(c.QueryParam("days"))}
	var g errgroup.Group
	g.Go(func() error {
		t, err := w.API.UsageTrends(ctx, r.Days)
		r.Trends = t
		return err
	})
	g.Go(func() error {
		rec, err := w.API.Recommendations(ctx)
		r.Recommendations = rec
		return err
	})
	g.Go(func() error {
		p, err := w.API.ModelPricing(ctx, "")
		r.Pricing = p
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("analytics load failed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
		w.Notify.Error("Failed to load analytics", apperror.Normalize(err, "Please try refreshing the page"))
	}

	return middleware.Render(c, http.StatusOK, Page(r, newCompareForm()))
}

// Compare runs the cost calculator (GET /analytics/compare). HTMX gets the
// result table only.
func (h *Handler) Compare(c echo.Context) error {
	w := middleware.GetWorkspace(c)

	var form CompareForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	prompt, completion, providers, errs := form.parse()

	result := Comparison{Form: form, Errors: errs}
	if errs.OK() {
		cmp, err := w.API.CostComparison(c.Request().Context(), prompt, completion, providers)
		if err != nil {
			slog.Warn("cost comparison failed",
				slog.String("workspace", w.ID),
				slog.Any("error", err),
			)
			result.Message = apperror.Normalize(err, "The comparison could not be calculated.")
		} else {
			result.Rows = flatten(cmp)
			result.Ran = true
		}
	}

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, ComparisonSection(result))
	}
	return middleware.Render(c, http.StatusOK, ComparePage(result))
}
