package notifications

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/notify"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// List renders the toasts, newest last. The container itself lives in
// the base layout; this fills it.
func List(entries []notify.Entry) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		for _, e := range entries {
			role := "status"
			if e.Severity == notify.SeverityError {
				role = "alert"
			}
			h.Printf(`<div class="toast toast-%s" id="toast-%s" role="%s"><div><strong>%s</strong>`,
				string(e.Severity), e.ID, role, e.Title)
			if e.Message != "" {
				h.Printf("<p>%s</p>", e.Message)
			}
			h.Printf(`</div><form method="post" action="/notifications/%s/dismiss" hx-post="/notifications/%s/dismiss" hx-target="#notifications">`, e.ID, e.ID)
			h.Render(ctx, layouts.CSRFField())
			h.Raw(`<button type="submit" class="toast-close" aria-label="Dismiss">&times;</button></form></div>`)
		}
		if len(entries) > 1 {
			h.Raw(`<form method="post" action="/notifications/clear" hx-post="/notifications/clear" hx-target="#notifications">`)
			h.Render(ctx, layouts.CSRFField())
			h.Raw(`<button type="submit" class="btn btn-small">Dismiss all</button></form>`)
		}
	})
}
