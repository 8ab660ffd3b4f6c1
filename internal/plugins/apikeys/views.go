package apikeys

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// Page is the full API keys page.
func Page(keys []apiclient.APIKey, form AddKeyRequest, errs validate.Errors) templ.Component {
	return layouts.Base("API Keys", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("API Keys", "Manage your AI provider API keys"))
		h.Render(ctx, Section(keys, form, errs))
	}))
}

// Section is the swappable part of the page: add form and key list.
func Section(keys []apiclient.APIKey, form AddKeyRequest, errs validate.Errors) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<div id="api-keys" class="grid two">`)
		h.Render(ctx, addForm(form, errs))
		h.Render(ctx, keyList(keys))
		h.Raw("</div>")
	})
}

func addForm(form AddKeyRequest, errs validate.Errors) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Add API Key</h2>`)
		h.Raw(`<form method="post" action="/api-keys" hx-post="/api-keys" hx-target="#api-keys" hx-swap="outerHTML" novalidate>`)
		h.Render(ctx, layouts.CSRFField())
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "Name", Name: "name", Value: form.Name,
			Error: errs.Get("name"), Placeholder: "Production OpenAI",
		}))
		h.Render(ctx, layouts.Select("Provider", "provider", apiclient.Providers, form.Provider, errs.Get("provider")))
		h.Render(ctx, layouts.Field(layouts.Input{
			Label: "API Key", Name: "api_key", Type: "password",
			Error: errs.Get("api_key"), Placeholder: "sk-...", Autocomplete: "off",
		}))
		h.Raw(`<p class="muted">Keys are encrypted by the service and never shown again.</p>`)
		h.Raw(`<button type="submit" class="btn btn-primary">Add Key</button>`)
		h.Raw("</form></section>")
	})
}

func keyList(keys []apiclient.APIKey) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Your Keys</h2>`)
		if len(keys) == 0 {
			h.Render(ctx, layouts.EmptyState("No API keys yet", "Add your first provider key to start tracking costs.", "", ""))
			h.Raw("</section>")
			return
		}
		h.Raw("<table><thead><tr><th>Name</th><th>Provider</th><th>Status</th><th>Added</th><th>Last used</th><th></th></tr></thead><tbody>")
		for _, k := range keys {
			status := `<span class="badge badge-muted">Inactive</span>`
			if k.IsActive {
				status = `<span class="badge badge-ok">Active</span>`
			}
			lastUsed := "Never"
			if k.LastUsedAt != "" {
				lastUsed = format.DateTime(k.LastUsedAt)
			}
			h.Printf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>",
				k.Name, k.Provider, layouts.Safe(status), format.Date(k.CreatedAt), lastUsed)

			action := fmt.Sprintf("/api-keys/%d", k.ID)
			h.Printf(`<td><form method="post" action="%s/delete" hx-delete="%s" hx-target="#api-keys" hx-swap="outerHTML" hx-confirm="Delete the key %s?">`,
				action, action, k.Name)
			h.Render(ctx, layouts.CSRFField())
			h.Raw(`<button type="submit" class="btn btn-danger btn-small">Delete</button></form></td></tr>`)
		}
		h.Raw("</tbody></table></section>")
	})
}
