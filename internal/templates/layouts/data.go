// data.go provides typed context helpers for passing layout data from
// middleware to templ components. Only simple types are stored so the
// layouts package never imports session or workspace types.
//
// Data flow: Workspace/CSRF middleware → Echo Context → LayoutInjector → Go Context → templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserName        ctxKey = "layout_user_name"
	keyUserEmail       ctxKey = "layout_user_email"
	keyUserPlan        ctxKey = "layout_user_plan"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyActivePath      ctxKey = "layout_active_path"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetIsAuthenticated marks whether the current workspace holds a session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetUserName stores the display name shown in the header.
func SetUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyUserName, name)
}

// SetUserEmail stores the authenticated user's email.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyUserEmail, email)
}

// SetUserPlan stores the plan tier badge text.
func SetUserPlan(ctx context.Context, plan string) context.Context {
	return context.WithValue(ctx, keyUserPlan, plan)
}

// SetCSRFToken stores the CSRF token for forms and hx-headers.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// --- Getters (called by components) ---

// IsAuthenticated returns true if the current workspace holds a session.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAuthenticated).(bool)
	return v
}

// GetUserName returns the display name, falling back to the email.
func GetUserName(ctx context.Context) string {
	if v, _ := ctx.Value(keyUserName).(string); v != "" {
		return v
	}
	return GetUserEmail(ctx)
}

// GetUserEmail returns the authenticated user's email, or "".
func GetUserEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyUserEmail).(string)
	return v
}

// GetUserPlan returns the plan tier, or "".
func GetUserPlan(ctx context.Context) string {
	v, _ := ctx.Value(keyUserPlan).(string)
	return v
}

// GetCSRFToken returns the CSRF token, or "".
func GetCSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(keyCSRFToken).(string)
	return v
}

// GetActivePath returns the current request path.
func GetActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}
