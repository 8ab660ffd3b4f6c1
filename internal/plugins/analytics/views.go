package analytics

import (
	"context"
	"slices"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/sanitize"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// Page is the analytics page.
func Page(r Report, form CompareForm) templ.Component {
	return layouts.Base("Analytics", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Analytics", "Trends, savings and model pricing"))
		h.Render(ctx, periodPicker(r.Days))
		h.Render(ctx, trends(r))
		h.Render(ctx, recommendations(r.Recommendations))
		h.Render(ctx, ComparisonSection(Comparison{Form: form}))
		h.Render(ctx, pricing(r.Pricing))
	}))
}

// ComparePage is the calculator on its own, for non-HTMX submissions.
func ComparePage(c Comparison) templ.Component {
	return layouts.Base("Cost Comparison", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Cost Comparison", "Estimate a request across models"))
		h.Render(ctx, ComparisonSection(c))
		h.Raw(`<p><a href="/analytics">&larr; Back to analytics</a></p>`)
	}))
}

func periodPicker(days int) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<nav class="tabs">`)
		for _, p := range Periods {
			class := "tab"
			if p == days {
				class += " active"
			}
			h.Printf(`<a class="%s" href="/analytics?days=%d">Last %d days</a>`, class, p, p)
		}
		h.Raw("</nav>")
	})
}

func trends(r Report) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Usage Trend</h2>`)
		t := r.Trends
		if t == nil || len(t.DailyTrends) == 0 {
			h.Raw(`<p class="muted">No usage in this period.</p></section>`)
			return
		}
		h.Printf(`<p>Cost is <strong>%s</strong> (%+.1f%% over %d days)</p>`,
			t.Summary.CostTrend, t.Summary.CostChangePercent, t.Summary.TotalDays)
		if change, ok := r.WeekOverWeek(); ok {
			h.Printf(`<p class="muted">Last 7 days vs previous 7: %+.1f%%</p>`, change)
		}
		h.Raw("<table><thead><tr><th>Date</th><th>Requests</th><th>Tokens</th><th>Cost</th><th>Avg latency</th></tr></thead><tbody>")
		for _, d := range t.DailyTrends {
			h.Printf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s ms</td></tr>",
				format.Date(d.Date), format.Int(d.Requests), format.Int(d.Tokens), format.Currency(d.Cost), format.Number(d.AvgLatencyMS))
		}
		h.Raw("</tbody></table></section>")
	})
}

func recommendations(r *apiclient.RecommendationsResponse) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Recommendations</h2>`)
		if r == nil || len(r.Recommendations) == 0 {
			h.Raw(`<p class="muted">No recommendations right now. Keep sending traffic through the proxy and check back.</p></section>`)
			return
		}
		if r.TotalPotentialSavings > 0 {
			h.Printf(`<p>Potential savings: <strong>%s</strong></p>`, format.Currency(r.TotalPotentialSavings))
		}
		for _, rec := range r.Recommendations {
			h.Printf(`<article class="recommendation priority-%s"><h3>%s</h3><p>%s</p>`,
				sanitize.Text(rec.Priority), sanitize.Text(rec.Title), sanitize.Text(rec.Description))
			if rec.PotentialSavings != nil {
				h.Printf(`<p class="muted">Save up to %s</p>`, format.Currency(*rec.PotentialSavings))
			}
			if rec.ActionRequired != "" {
				h.Printf(`<p><strong>Action:</strong> %s</p>`, sanitize.Text(rec.ActionRequired))
			}
			h.Printf(`<p class="muted">Confidence %.0f%%</p></article>`, rec.Confidence*100)
		}
		h.Raw("</section>")
	})
}

// ComparisonSection is the calculator form plus its result.
func ComparisonSection(c Comparison) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card" id="compare"><h2>Cost Comparison</h2>`)
		h.Raw(`<form method="get" action="/analytics/compare" hx-get="/analytics/compare" hx-target="#compare" hx-swap="outerHTML">`)
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Prompt tokens", Name: "prompt_tokens", Type: "number", Value: c.Form.PromptTokens,
			Error: c.Errors.Get("prompt_tokens"),
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Completion tokens", Name: "completion_tokens", Type: "number", Value: c.Form.CompletionTokens,
			Error: c.Errors.Get("completion_tokens"),
		}))
		h.Raw(`<fieldset><legend>Providers</legend>`)
		for _, p := range apiclient.Providers {
			h.Render(ctx, providerBox(p, slices.Contains(c.Form.Providers, p)))
		}
		if msg := c.Errors.Get("providers"); msg != "" {
			h.Printf(`<p class="field-error">%s</p>`, msg)
		}
		h.Raw(`</fieldset><button type="submit" class="btn btn-primary">Compare</button></form>`)

		h.Render(ctx, layouts.Alert("error", c.Message))
		if c.Ran {
			h.Render(ctx, comparisonTable(c.Rows))
		}
		h.Raw("</section>")
	})
}

func providerBox(provider string, checked bool) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		attr := ""
		if checked {
			attr = " checked"
		}
		h.Printf(`<label class="inline"><input type="checkbox" name="providers" value="%s"%s> %s</label>`,
			provider, layouts.Safe(attr), provider)
	})
}

func comparisonTable(rows []ComparisonRow) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		if len(rows) == 0 {
			h.Raw(`<p class="muted">No priced models match.</p>`)
			return
		}
		h.Raw("<table><thead><tr><th>Provider</th><th>Model</th><th>Prompt / 1K</th><th>Completion / 1K</th><th>Estimated cost</th></tr></thead><tbody>")
		for i, r := range rows {
			class := ""
			if i == 0 {
				class = "best"
			}
			h.Printf(`<tr class="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				class, r.Provider, r.Model, format.Currency(r.Pricing.PromptPer1K), format.Currency(r.Pricing.CompletionPer1K), format.Currency(r.Cost))
		}
		h.Raw("</tbody></table>")
	})
}

func pricing(models []apiclient.ModelPricing) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Model Pricing</h2>`)
		if len(models) == 0 {
			h.Raw(`<p class="muted">Pricing is unavailable right now.</p></section>`)
			return
		}
		h.Raw("<table><thead><tr><th>Provider</th><th>Model</th><th>Prompt / 1K</th><th>Completion / 1K</th><th>Max tokens</th><th>Streaming</th></tr></thead><tbody>")
		for _, m := range models {
			if !m.IsActive {
				continue
			}
			maxTok := "-"
			if m.MaxTokens != nil {
				maxTok = format.Int(*m.MaxTokens)
			}
			streaming := "No"
			if m.SupportsStreaming {
				streaming = "Yes"
			}
			h.Printf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
				m.Provider, m.ModelName, format.Currency(m.PromptPricePer1KTokens), format.Currency(m.CompletionPricePer1KTokens), maxTok, streaming)
		}
		h.Raw("</tbody></table></section>")
	})
}
