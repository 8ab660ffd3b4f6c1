package layouts

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Safe is markup that Printf writes without escaping. Only use it for
// strings built by this package or other components.
type Safe string

// HTML writes markup to an io.Writer, escaping untrusted values and keeping
// the first write error.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes trusted markup as is.
func (h *HTML) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes s escaped for element content or a quoted attribute.
func (h *HTML) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Printf formats like fmt.Sprintf, escaping every string argument. Safe
// arguments are written verbatim; numbers are formatted unchanged.
func (h *HTML) Printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case Safe:
			escaped[i] = string(v)
		case string:
			escaped[i] = templ.EscapeString(v)
		case templ.SafeURL:
			escaped[i] = templ.EscapeString(string(v))
		default:
			escaped[i] = a
		}
	}
	h.Raw(fmt.Sprintf(format, escaped...))
}

// Render writes a child component.
func (h *HTML) Render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Err returns the first write error.
func (h *HTML) Err() error {
	return h.err
}

// Component adapts a writer function into a templ.Component.
func Component(fn func(ctx context.Context, h *HTML)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		fn(ctx, h)
		return h.Err()
	})
}

// URL sanitizes a link target for an href attribute.
func URL(s string) templ.SafeURL {
	return templ.URL(s)
}
