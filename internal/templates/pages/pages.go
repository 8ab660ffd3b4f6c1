// Package pages holds the standalone pages that belong to no plugin: the
// public landing page and the error page rendered by the app error handler.
package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// Landing is the public home page.
func Landing() templ.Component {
	return layouts.Base("AI Cost Optimization", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="hero">`)
		h.Raw("<h1>Know what your AI costs before the invoice does</h1>")
		h.Raw(`<p class="lead">Track spend across OpenAI, Anthropic and Azure, set budgets and get recommendations to cut your bill.</p>`)
		h.Raw(`<div class="actions">`)
		if layouts.IsAuthenticated(ctx) {
			h.Raw(`<a class="btn btn-primary" href="/dashboard">Go to dashboard</a>`)
		} else {
			h.Raw(`<a class="btn btn-primary" href="/register">Get Started</a>`)
			h.Raw(`<a class="btn btn-outline" href="/login">Sign In</a>`)
		}
		h.Raw("</div></section>")
	}))
}

// ErrorPage renders a full-page error with its status code.
func ErrorPage(code int, message string) templ.Component {
	return layouts.Base("Error", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Printf(`<section class="error-page"><p class="code">%d</p><h1>%s</h1>`, code, message)
		h.Raw(`<a class="btn btn-outline" href="/">Back to home</a></section>`)
	}))
}
