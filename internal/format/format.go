// Package format renders numbers, money and timestamps for dashboard pages in
// the en-US conventions the product uses everywhere. All functions are pure.
package format

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// timestampLayouts are the shapes the cost API emits: RFC 3339 with or
// without zone, with optional fractional seconds, or a bare date.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Currency formats a USD amount with two to four fraction digits:
// 1234.5 → "$1,234.50", 0.00123 → "$0.0012".
func Currency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := printer.Sprintf("%.4f", amount)
	s = trimFraction(s, 2)
	if s == "0.00" {
		sign = ""
	}
	return sign + "$" + s
}

// Number formats a count with thousands separators and at most three
// fraction digits: 1234567 → "1,234,567", 1.5 → "1.5".
func Number(n float64) string {
	return trimFraction(printer.Sprintf("%.3f", n), 0)
}

// Int formats an integer count with thousands separators.
func Int(n int64) string {
	return printer.Sprintf("%d", n)
}

// Date renders a timestamp as "Jan 2, 2006". Unparseable input is returned unchanged.
func Date(ts string) string {
	t, ok := ParseTime(ts)
	if !ok {
		return ts
	}
	return t.Format("Jan 2, 2006")
}

// DateTime renders a timestamp as "Jan 2, 2006, 03:04 PM".
func DateTime(ts string) string {
	t, ok := ParseTime(ts)
	if !ok {
		return ts
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}

// ParseTime parses the timestamp shapes the cost API emits.
func ParseTime(ts string) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PercentageChange returns the change from previous to current in percent.
// A zero baseline yields 100 for any growth and 0 otherwise.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// TruncateToken shortens a bearer token for display: the first 20 and last
// 10 characters joined by "...". Short tokens are returned as-is.
func TruncateToken(token string) string {
	if len(token) <= 30 {
		return token
	}
	return token[:20] + "..." + token[len(token)-10:]
}

// trimFraction removes trailing zeros from the fractional part of s, keeping
// at least minDigits digits. The separator is dropped when no digits remain.
func trimFraction(s string, minDigits int) string {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1+minDigits && s[end-1] == '0' {
		end--
	}
	if end == dot+1 {
		end = dot
	}
	return s[:end]
}
