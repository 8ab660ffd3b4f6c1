package dashboard

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// Page is the dashboard.
func Page(o Overview) templ.Component {
	return layouts.Base("Dashboard", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Dashboard", "Overview of your AI usage and costs"))

		s := o.Summary()
		h.Raw(`<div class="grid stats">`)
		h.Render(ctx, layouts.StatCard("Total Cost", format.Currency(s.TotalCost), "Last 30 days"))
		h.Render(ctx, layouts.StatCard("Total Requests", format.Int(s.TotalRequests), "API calls made"))
		h.Render(ctx, layouts.StatCard("Total Tokens", format.Int(s.TotalTokens), "Tokens processed"))
		h.Render(ctx, layouts.StatCard("Connected APIs", format.Int(int64(len(o.Keys))), fmt.Sprintf("%d active", o.ActiveKeys())))
		h.Raw("</div>")

		if b := o.BudgetAlert(); b != nil {
			title := "Budget Alert"
			kind := "warning"
			if b.IsOverBudget {
				title, kind = "Budget Exceeded", "error"
			}
			h.Printf(`<div class="alert alert-%s"><strong>%s</strong> You've used %.1f%% of your monthly budget (%s of %s)</div>`,
				kind, title, b.PercentageUsed, format.Currency(b.CurrentSpend), format.Currency(b.BudgetLimit))
		}

		h.Raw(`<div class="grid two">`)
		h.Render(ctx, dailyUsage(o))
		h.Render(ctx, providerBreakdown(o))
		h.Raw("</div>")

		h.Render(ctx, modelBreakdown(o))
		h.Render(ctx, connectedKeys(o))
	}))
}

func dailyUsage(o Overview) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Daily Cost</h2>`)
		if o.Analytics == nil || len(o.Analytics.DailyUsage) == 0 {
			h.Raw(`<p class="muted">No usage recorded yet.</p></section>`)
			return
		}
		max := o.maxDailyCost()
		h.Raw(`<ul class="bars">`)
		for _, d := range o.Analytics.DailyUsage {
			pct := 0.0
			if max > 0 {
				pct = d.Cost / max * 100
			}
			h.Printf(`<li><span class="bar-label">%s</span><span class="bar" style="width: %.1f%%"></span><span class="bar-value">%s</span></li>`,
				format.Date(d.Date), pct, format.Currency(d.Cost))
		}
		h.Raw("</ul></section>")
	})
}

func providerBreakdown(o Overview) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Cost by Provider</h2>`)
		if o.Analytics == nil || len(o.Analytics.ProviderBreakdown) == 0 {
			h.Raw(`<p class="muted">No provider usage yet.</p></section>`)
			return
		}
		h.Raw("<ul class=\"breakdown\">")
		for _, p := range o.Analytics.ProviderBreakdown {
			h.Printf(`<li><span>%s</span><span>%s</span><span class="muted">%.1f%%</span></li>`,
				p.Provider, format.Currency(p.Cost), p.Percentage)
		}
		h.Raw("</ul></section>")
	})
}

func modelBreakdown(o Overview) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Model Usage</h2>`)
		if o.Analytics == nil || len(o.Analytics.ModelBreakdown) == 0 {
			h.Raw(`<p class="muted">No model usage yet.</p></section>`)
			return
		}
		h.Raw("<table><thead><tr><th>Model</th><th>Provider</th><th>Requests</th><th>Tokens</th><th>Cost</th><th>Share</th></tr></thead><tbody>")
		for _, m := range o.Analytics.ModelBreakdown {
			h.Printf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%.1f%%</td></tr>",
				m.Model, m.Provider, format.Int(m.Requests), format.Int(m.Tokens), format.Currency(m.Cost), m.Percentage)
		}
		h.Raw("</tbody></table></section>")
	})
}

func connectedKeys(o Overview) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Connected APIs</h2>`)
		if len(o.Keys) == 0 {
			h.Render(ctx, layouts.EmptyState("No API keys yet", "Add a provider key to start tracking costs.", "/api-keys", "Add API Key"))
			h.Raw("</section>")
			return
		}
		h.Raw(`<ul class="keys">`)
		for _, k := range o.Keys {
			status := "Inactive"
			if k.IsActive {
				status = "Active"
			}
			h.Printf(`<li><strong>%s</strong> <span class="badge">%s</span> <span class="muted">%s</span>`, k.Name, k.Provider, status)
			if k.LastUsedAt != "" {
				h.Printf(` <span class="muted">Last used %s</span>`, format.Date(k.LastUsedAt))
			}
			h.Raw("</li>")
		}
		h.Raw("</ul></section>")
	})
}
