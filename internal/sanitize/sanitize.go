// Package sanitize cleans text that arrives from the remote cost API or the
// identity provider before it is shown in a page or a notification. Error
// details, recommendation descriptions and API key names are not trusted to
// be plain text.
package sanitize

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxMessageLength caps remote-supplied messages shown in toasts.
const MaxMessageLength = 300

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call.
// Strict strips every element and attribute, keeping only text content.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all markup from s, unescapes entities (templ escapes again on
// render) and collapses runs of whitespace.
func Text(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(getPolicy().Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// Message is Text truncated to MaxMessageLength runes with an ellipsis.
func Message(s string) string {
	t := Text(s)
	if utf8.RuneCountInString(t) <= MaxMessageLength {
		return t
	}
	runes := []rune(t)
	return string(runes[:MaxMessageLength-1]) + "…"
}
