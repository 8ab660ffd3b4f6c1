package integration

import (
	"context"
	"sort"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/templates/layouts"
)

// Page is the integration page.
func Page(v View) templ.Component {
	return layouts.Base("Integration", layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Render(ctx, layouts.PageHeader("API Integration", "Get your API credentials and integration details"))
		h.Render(ctx, progress(v.Setup))
		h.Render(ctx, providers(v))

		if len(v.Keys) == 0 {
			h.Raw(`<section class="card alert alert-warning"><h2>Action Required: Add API Keys</h2>`)
			h.Raw(`<p>You need to add your AI provider API keys before you can use the integration endpoints. `)
			h.Raw(`Without API keys, the proxy won't know how to authenticate with OpenAI, Anthropic, etc.</p>`)
			h.Raw(`<a class="btn btn-primary" href="/api-keys">Add API Keys Now</a></section>`)
			return
		}

		h.Raw(`<section class="card"><h2>API Token</h2>`)
		h.Raw(`<p class="muted">Use this token to authenticate requests to the cost-tracking proxy</p>`)
		h.Render(ctx, tokenField(v.Token, false))
		h.Raw(`<p class="muted">Keep this token secure. It provides access to your AI usage tracking.</p>`)
		h.Printf(`<div class="field"><label for="proxy-url">API Base URL</label><input id="proxy-url" type="text" readonly value="%s"></div>`, v.ProxyURL)
		h.Raw("</section>")

		if !v.Setup.Complete() {
			return
		}
		h.Render(ctx, quickStart(v))
		h.Render(ctx, endpoints(v))
		h.Raw(`<section class="card"><h2>Security Notes</h2><ul>`)
		h.Raw("<li>Keep your API token secure and never expose it in client-side code</li>")
		h.Raw("<li>Use environment variables to store your token in production</li>")
		h.Raw("<li>Your token provides access to your usage data and can incur costs</li>")
		h.Raw("<li>If you believe your token is compromised, sign in again to get a new token</li>")
		h.Raw("</ul></section>")
		h.Raw(`<section class="card"><p>Once you start making requests through the proxy, you'll see real-time analytics in your dashboard.</p>`)
		h.Raw(`<a class="btn btn-primary" href="/dashboard">View Dashboard</a> <a class="btn" href="/api-keys">Manage API Keys</a></section>`)
	}))
}

// tokenField renders the token input; full marks the revealed variant.
func tokenField(token string, full bool) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<div class="field" id="token-field"><label for="api-token">Bearer Token</label>`)
		h.Printf(`<input id="api-token" type="text" readonly value="%s" placeholder="Your token will appear here">`, token)
		if !full && token != "" {
			h.Raw(`<button type="button" class="btn btn-small" hx-get="/integration/token" hx-target="#token-field" hx-swap="outerHTML">Show full token</button>`)
		}
		h.Raw("</div>")
	})
}

func progress(s Setup) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Setup Progress</h2><ol class="steps">`)
		step(h, s.HasKeys, "Add your AI provider API keys")
		if !s.HasKeys {
			h.Raw(`<li class="step-action"><a href="/api-keys">Add API Keys &rarr;</a></li>`)
		}
		step(h, s.HasToken, "Get your API integration token")
		step(h, s.Complete(), "Start making requests through our proxy")
		h.Raw("</ol>")
		if s.Complete() {
			h.Raw(`<p class="alert alert-success">Setup complete! You're ready to start tracking AI usage and costs.</p>`)
		}
		h.Raw("</section>")
	})
}

func step(h *layouts.HTML, done bool, label string) {
	class := "step"
	if done {
		class += " done"
	}
	h.Printf(`<li class="%s">%s</li>`, class, label)
}

func providers(v View) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		noun := "providers"
		if len(v.Keys) == 1 {
			noun = "provider"
		}
		h.Printf(`<section class="card"><h2>Connected Providers</h2><p class="muted">%s %s connected</p>`,
			format.Int(int64(len(v.Keys))), noun)
		if len(v.Keys) == 0 {
			h.Render(ctx, layouts.EmptyState("No providers yet", "You need to add your OpenAI or Anthropic API keys first.", "/api-keys", "Add Your First API Key"))
		} else {
			h.Raw(`<ul class="keys">`)
			for _, k := range v.Keys {
				h.Printf(`<li><strong>%s</strong> <span class="muted">%s</span>`, k.Provider, k.Name)
				if k.IsActive {
					h.Raw(` <span class="badge badge-ok">Active</span>`)
				}
				h.Raw("</li>")
			}
			h.Raw("</ul>")
		}
		h.Raw("</section>")
	})
}

func quickStart(v View) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		h.Raw(`<section class="card"><h2>Quick Start <span class="badge">Recommended</span></h2>`)
		h.Raw(`<p class="muted">Just change your base URL. No extra headers; works with any OpenAI-compatible SDK.</p>`)
		for _, s := range v.Snippets {
			h.Printf(`<h3>%s</h3><pre><code class="language-%s">%s</code></pre>`, s.Title, s.Language, s.Code)
		}
		h.Raw("</section>")
	})
}

func endpoints(v View) templ.Component {
	return layouts.Component(func(ctx context.Context, h *layouts.HTML) {
		byProvider := v.Endpoints()
		if len(byProvider) == 0 {
			return
		}
		names := make([]string, 0, len(byProvider))
		for p := range byProvider {
			names = append(names, p)
		}
		sort.Strings(names)

		h.Raw(`<section class="card"><h2>Available Endpoints</h2>`)
		for _, p := range names {
			h.Printf("<h3>%s</h3><ul>", p)
			for _, e := range byProvider[p] {
				h.Printf(`<li><code>%s %s</code> <span class="muted">%s</span></li>`, e.Method, e.Path, e.Label)
			}
			h.Raw("</ul>")
		}
		h.Raw("</section>")
	})
}
