package layouts

import (
	"context"
	"math"

	"github.com/a-h/templ"
)

// StatCard renders one headline number.
func StatCard(title, value, subtitle string) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Printf(`<div class="card stat"><p class="stat-title">%s</p><p class="stat-value">%s</p><p class="muted">%s</p></div>`,
			title, value, subtitle)
	})
}

// ProgressBar renders a horizontal bar filled to percent (clamped to
// 0..100). Bars at or above warnAt turn amber, at 100 red.
func ProgressBar(percent, warnAt float64) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		width := math.Max(0, math.Min(100, percent))
		class := "ok"
		switch {
		case percent >= 100:
			class = "over"
		case percent >= warnAt:
			class = "warn"
		}
		h.Printf(`<div class="progress"><div class="progress-fill %s" style="width: %.1f%%"></div></div>`, class, width)
	})
}

// EmptyState renders a placeholder for an empty list with an optional link.
func EmptyState(title, text, href, linkLabel string) templ.Component {
	return Component(func(ctx context.Context, h *HTML) {
		h.Printf(`<div class="empty"><h3>%s</h3><p class="muted">%s</p>`, title, text)
		if href != "" {
			h.Printf(`<a class="btn btn-primary" href="%s">%s</a>`, URL(href), linkLabel)
		}
		h.Raw("</div>")
	})
}
