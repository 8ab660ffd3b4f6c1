package plans

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/session"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// Page is the plan picker; current marks the account's plan.
func Page(current session.PlanTier) templ.Component {
	return layouts.Base("Choose your plan", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Choose your plan", "Start free and upgrade when paid plans launch"))
		h.Raw(`<div class="grid plans">`)
		for _, p := range Catalog {
			h.Render(ctx, card(p, string(current) == p.ID))
		}
		h.Raw("</div>")
	}))
}

func card(p Plan, current bool) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		class := "card plan"
		if !p.Available {
			class += " disabled"
		}
		h.Printf(`<article class="%s"><header><h2>%s</h2>`, class, p.Name)
		if p.Badge != "" {
			h.Printf(`<span class="badge">%s</span>`, p.Badge)
		}
		h.Printf(`</header><p class="price">%s <span class="muted">%s</span></p><p>%s</p>`, p.Price, p.Period, p.Description)
		if p.Note != "" {
			h.Printf(`<p class="muted">%s</p>`, p.Note)
		}

		h.Raw(`<ul class="features">`)
		for _, f := range p.Features {
			mark := "no"
			if f.Included {
				mark = "yes"
			}
			h.Printf(`<li class="%s">%s</li>`, mark, f.Text)
		}
		h.Raw("</ul>")

		label := "Get Started Free"
		switch {
		case current:
			label = "Continue with " + p.Name
		case !p.Available:
			label = "Coming Soon"
		}
		h.Raw(`<form method="post" action="/plan-selection" hx-post="/plan-selection" hx-swap="none">`)
		h.Render(ctx, layouts.CSRFField())
		h.Printf(`<input type="hidden" name="plan" value="%s"><button type="submit" class="btn btn-primary btn-block">%s</button></form>`, p.ID, label)
		h.Raw("</article>")
	})
}
