package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
)

const (
	// csrfTokenLength is the number of random bytes in a token (64 hex chars).
	csrfTokenLength = 32

	csrfCookieName = "costpilot_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
	contextKeyCSRF = "csrf_token"
)

// CSRF returns middleware implementing the double-submit cookie pattern on
// every state-changing request (POST, PUT, PATCH, DELETE).
//
// A token cookie is issued on first contact. Mutating requests must echo it
// back in the X-CSRF-Token header (HTMX; the base layout sets hx-headers on
// <body>) or in the csrf_token form field (plain forms).
//
// Paths starting with one of skipPrefixes (scrape and probe endpoints) pass
// through untouched.
func CSRF(skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(req.URL.Path, prefix) {
					return next(c)
				}
			}

			expected, err := ensureCSRFCookie(c)
			if err != nil {
				return apperror.NewInternal(err)
			}
			c.Set(contextKeyCSRF, expected)

			if isSafeMethod(req.Method) {
				return next(c)
			}

			submitted := req.Header.Get(csrfHeaderName)
			if submitted == "" {
				submitted = req.FormValue(csrfFormField)
			}

			// Constant-time comparison.
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
				return apperror.NewForbidden("Your form expired. Please reload the page and try again.")
			}

			return next(c)
		}
	}
}

// ensureCSRFCookie returns the request's token, issuing a new cookie when
// none was sent. A freshly issued token cannot match a mutating request,
// which is then rejected as intended.
func ensureCSRFCookie(c echo.Context) (string, error) {
	req := c.Request()
	if cookie, err := req.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false, // read by the page for hx-headers
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetCSRFToken retrieves the CSRF token from the Echo context. The layout
// injector copies it into the templ context for forms.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get(contextKeyCSRF).(string); ok {
		return token
	}
	return ""
}
