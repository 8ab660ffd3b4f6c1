// Package validate collects per-field form errors. Handlers check a form,
// and when Errors is not empty they re-render it with the messages next to
// the offending fields.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailPattern is deliberately loose: something@something.tld. The identity
// provider is the authority on deliverable addresses.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Errors maps a form field name to its first error message.
type Errors map[string]string

// OK reports whether no field failed.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Add records msg for field unless the field already failed.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Required fails field when value is blank.
func (e Errors) Required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, msg)
		return false
	}
	return true
}

// Email fails field when value does not look like an address.
func (e Errors) Email(field, value, msg string) bool {
	if !emailPattern.MatchString(value) {
		e.Add(field, msg)
		return false
	}
	return true
}

// MinLength fails field when value has fewer than n characters.
func (e Errors) MinLength(field, value string, n int, msg string) bool {
	if utf8.RuneCountInString(value) < n {
		e.Add(field, msg)
		return false
	}
	return true
}

// OneOf fails field when value is not in allowed.
func (e Errors) OneOf(field, value string, allowed []string, msg string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	e.Add(field, msg)
	return false
}
