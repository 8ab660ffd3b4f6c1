package layouts

import (
	"context"
	"encoding/json"

	"github.com/a-h/templ"
)

// htmxSrc is the pinned htmx build loaded by every page.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

type navLink struct {
	Path  string
	Label string
}

var appNav = []navLink{
	{"/dashboard", "Dashboard"},
	{"/api-keys", "API Keys"},
	{"/budget", "Budget"},
	{"/integration", "Integration"},
	{"/analytics", "Analytics"},
	{"/plan-selection", "Plans"},
	{"/account", "Account"},
}

// Base is the full-page shell: head, navigation, the notification region
// and the page body.
func Base(title string, body templ.Component) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Raw("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Printf("<title>%s · Costpilot</title>", title)
		h.Raw(`<link rel="stylesheet" href="/static/css/app.css">`)
		h.Printf(`<script src="%s" defer></script>`, htmxSrc)
		h.Raw("</head>")

		h.Printf(`<body hx-headers="%s">`, csrfHeaders(ctx))
		h.Render(ctx, header())
		h.Raw(`<div id="notifications" class="toasts" aria-live="polite" hx-get="/notifications" hx-trigger="load, every 2s, notify from:body" hx-swap="innerHTML"></div>`)
		h.Raw(`<main class="container">`)
		h.Render(ctx, body)
		h.Raw("</main></body></html>")
	})
}

func header() templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Raw(`<header class="topbar"><a class="brand" href="/">Costpilot</a><nav>`)
		if !IsAuthenticated(ctx) {
			h.Raw(`<a href="/login">Sign in</a><a class="btn btn-primary" href="/register">Get started</a>`)
			h.Raw("</nav></header>")
			return
		}

		active := GetActivePath(ctx)
		for _, l := range appNav {
			class := ""
			if l.Path == active {
				class = ` class="active"`
			}
			h.Printf(`<a href="%s"%s>%s</a>`, URL(l.Path), Safe(class), l.Label)
		}
		h.Raw("</nav>")

		h.Raw(`<div class="account">`)
		h.Printf(`<span class="user">%s</span>`, GetUserName(ctx))
		if plan := GetUserPlan(ctx); plan != "" {
			h.Printf(`<span class="badge">%s</span>`, plan)
		}
		h.Raw(`<form method="post" action="/logout">`)
		h.Render(ctx, CSRFField())
		h.Raw(`<button type="submit" class="btn btn-link">Sign out</button></form></div></header>`)
	})
}

// CSRFField renders the hidden token input for plain form posts.
func CSRFField() templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Printf(`<input type="hidden" name="csrf_token" value="%s">`, GetCSRFToken(ctx))
	})
}

// PageHeader renders a page title with its subtitle.
func PageHeader(title, subtitle string) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Printf(`<div class="page-header"><h1>%s</h1>`, title)
		if subtitle != "" {
			h.Printf(`<p class="muted">%s</p>`, subtitle)
		}
		h.Raw("</div>")
	})
}

// csrfHeaders is the JSON object HTMX merges into every request's headers.
func csrfHeaders(ctx context.Context) string {
	b, _ := json.Marshal(map[string]string{"X-CSRF-Token": GetCSRFToken(ctx)})
	return string(b)
}
