package account

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// Page is the account page. stats may be nil.
func Page(form ProfileForm, errs validate.Errors, stats *apiclient.AccountStats) templ.Component {
	return layouts.Base("Account", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("Account", "Your profile and usage"))
		h.Raw(`<div class="grid two"><section class="card"><h2>Profile</h2>`)
		h.Render(ctx, profileForm(form, errs))
		h.Raw("</section>")
		h.Render(ctx, usage(stats))
		h.Raw("</div>")

		h.Raw(`<section class="card"><h2>Your Data</h2>`)
		h.Raw(`<p class="muted">Download your profile, API key metadata, usage logs and budgets as JSON.</p>`)
		h.Raw(`<a class="btn" href="/account/export" download>Export account data</a></section>`)
	}))
}

func profileForm(form ProfileForm, errs validate.Errors) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<form method="post" action="/account" hx-post="/account" hx-target="this" hx-swap="outerHTML" novalidate>`)
		h.Render(ctx, layouts.CSRFField())
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Full name", Name: "full_name", Value: form.FullName,
			Error: errs.Get("full_name"), Autocomplete: "name",
		}))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Email", Name: "email", Type: "email", Value: form.Email,
			Error: errs.Get("email"), Autocomplete: "email",
		}))
		h.Raw(`<button type="submit" class="btn btn-primary">Save Changes</button></form>`)
	})
}

func usage(s *apiclient.AccountStats) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Usage</h2>`)
		if s == nil {
			h.Raw(`<p class="muted">Usage is unavailable right now.</p></section>`)
			return
		}
		h.Raw("<table><thead><tr><th></th><th>Requests</th><th>Tokens</th><th>Cost</th></tr></thead><tbody>")
		for _, row := range []struct {
			label string
			t     apiclient.UsageTotals
		}{{"This month", s.CurrentMonth}, {"All time", s.AllTime}} {
			h.Printf("<tr><th>%s</th><td>%s</td><td>%s</td><td>%s</td></tr>",
				row.label, format.Int(row.t.Requests), format.Int(row.t.Tokens), format.Currency(row.t.Cost))
		}
		h.Raw("</tbody></table>")
		h.Printf(`<dl class="meta"><dt>Plan</dt><dd>%s</dd><dt>Active API keys</dt><dd>%s</dd>`, s.Plan, format.Int(s.ActiveAPIKeys))
		if s.MemberSince != "" {
			h.Printf("<dt>Member since</dt><dd>%s</dd>", format.Date(s.MemberSince))
		}
		h.Raw("</dl></section>")
	})
}
