package budget

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// Page is the full budget page.
func Page(list []Row, form BudgetForm, errs validate.Errors) templ.Component {
	return layouts.Base("Budget", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Budget Management", "Set spending limits and monitor your AI costs"))
		h.Render(ctx, Section(list, form, errs))
	}))
}

// Section is the swappable part of the page.
func Section(list []Row, form BudgetForm, errs validate.Errors) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<div id="budgets" class="grid two">`)
		h.Render(ctx, createForm(form, errs))
		h.Raw(`<section class="card"><h2>Your Budgets</h2>`)
		if len(list) == 0 {
			h.Render(ctx, layouts.EmptyState("No budgets yet", "Create a budget to get alerted before costs run away.", "", ""))
		}
		for _, r := range list {
			h.Render(ctx, budgetRow(r))
		}
		h.Raw("</section></div>")
	})
}

func createForm(form BudgetForm, errs validate.Errors) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Create Budget</h2>`)
		h.Raw(`<form method="post" action="/budget" hx-post="/budget" hx-target="#budgets" hx-swap="outerHTML" novalidate>`)
		h.Render(ctx, layouts.CSRFField())
		h.Render(ctx, layouts.Select("Period", "period_type", apiclient.BudgetPeriods, form.PeriodType, errs.Get("period_type")))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Limit (USD)", Name: "limit_amount", Type: "number", Value: form.LimitAmount,
			Error: errs.Get("limit_amount"), Placeholder: "100.00",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Alert at (% of limit)", Name: "alert_threshold", Type: "number", Value: form.AlertThreshold,
			Error: errs.Get("alert_threshold"),
		}))
		h.Render(ctx, layouts.Checkbox("Email me when the threshold is crossed", "enable_alerts", form.EnableAlerts != ""))
		h.Render(ctx, layouts.Checkbox("Block requests once the limit is reached", "enable_auto_cutoff", form.EnableAutoCutoff != ""))
		h.Raw(`<button type="submit" class="btn btn-primary">Create Budget</button>`)
		h.Raw("</form></section>")
	})
}

func budgetRow(r Row) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		s := r.Setting
		h.Printf(`<article class="budget" id="budget-%d"><header><h3>%s budget</h3><span class="stat-value">%s</span>`,
			s.ID, s.PeriodType, format.Currency(s.LimitAmount))
		if !s.IsActive {
			h.Raw(`<span class="badge badge-muted">Inactive</span>`)
		}
		h.Raw("</header>")

		if st := r.Status; st != nil {
			h.Render(ctx, layouts.ProgressBar(st.PercentageUsed, s.AlertThreshold))
			h.Printf(`<p>%s of %s used (%.1f%%)</p>`, format.Currency(st.CurrentSpend), format.Currency(st.BudgetLimit), st.PercentageUsed)
			if st.IsOverBudget {
				h.Raw(`<p class="alert alert-error">Over budget</p>`)
			}
			if st.PeriodEnd != "" {
				h.Printf(`<p class="muted">Period ends %s</p>`, format.Date(st.PeriodEnd))
			}
		}

		alerts := "Off"
		if s.EnableAlerts {
			alerts = fmt.Sprintf("At %.0f%%", s.AlertThreshold)
		}
		cutoff := "Off"
		if s.EnableAutoCutoff {
			cutoff = "On"
		}
		h.Printf(`<dl class="meta"><dt>Alerts</dt><dd>%s</dd><dt>Auto cutoff</dt><dd>%s</dd></dl>`, alerts, cutoff)

		toggle := "Enable alerts"
		if s.EnableAlerts {
			toggle = "Disable alerts"
		}
		base := fmt.Sprintf("/budget/%d", s.ID)
		h.Raw(`<div class="actions">`)
		h.Printf(`<form method="post" action="%s/alerts" hx-post="%s/alerts" hx-target="#budgets" hx-swap="outerHTML">`, base, base)
		h.Render(ctx, layouts.CSRFField())
		h.Printf(`<button type="submit" class="btn btn-small">%s</button></form>`, toggle)
		h.Printf(`<form method="post" action="%s/delete" hx-delete="%s" hx-target="#budgets" hx-swap="outerHTML" hx-confirm="Delete this budget?">`, base, base)
		h.Render(ctx, layouts.CSRFField())
		h.Raw(`<button type="submit" class="btn btn-danger btn-small">Delete</button></form>`)
		h.Raw("</div></article>")
	})
}
