package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

// WorkspaceCookieName carries the workspace id. The id is the only thing the
// browser holds; tokens stay server-side in the durable slot.
const WorkspaceCookieName = "costpilot_ws"

const (
	contextKeyWorkspace = "workspace"
	contextKeyCookies   = "workspace_cookies"
)

// WorkspaceResolver returns the workspace for a cookie value, creating one
// when the value is empty, malformed or unknown, and moves a workspace to a
// fresh id after sign-in.
type WorkspaceResolver interface {
	Acquire(ctx context.Context, id string) *workspace.Workspace
	Rotate(ctx context.Context, w *workspace.Workspace) (*workspace.Workspace, error)
}

// workspaceCookies issues the workspace cookie.
type workspaceCookies struct {
	resolver WorkspaceResolver
	maxAge   time.Duration
	trusted  []*net.IPNet
}

func (wc *workspaceCookies) set(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     WorkspaceCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(wc.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isHTTPS(c.Request(), wc.trusted),
		SameSite: http.SameSiteLaxMode,
	})
}

// Workspaces resolves the request's workspace from its cookie, (re)issues
// the cookie when the id changed and stores the workspace in the Echo
// context. After the handler returns it flushes any login redirect recorded
// by an unauthorized API response that the handler did not act on.
// X-Forwarded-Proto marks the cookie Secure only when sent by a peer in
// trustedProxies.
func Workspaces(resolver WorkspaceResolver, maxAge time.Duration, trustedProxies []string) echo.MiddlewareFunc {
	wc := &workspaceCookies{
		resolver: resolver,
		maxAge:   maxAge,
		trusted:  parseCIDRs(trustedProxies),
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var id string
			if cookie, err := req.Cookie(WorkspaceCookieName); err == nil {
				id = cookie.Value
			}

			w := resolver.Acquire(req.Context(), id)
			if w.ID != id {
				wc.set(c, w.ID)
			}
			c.Set(contextKeyWorkspace, w)
			c.Set(contextKeyCookies, wc)

			err := next(c)

			if c.Response().Committed {
				return err
			}
			if err != nil && !isUnauthorized(err) {
				return err
			}
			// The handler may have rotated the workspace.
			if target, ok := GetWorkspace(c).TakeRedirect(); ok {
				return Redirect(c, target)
			}
			return err
		}
	}
}

// GetWorkspace returns the request's workspace, or nil when the Workspaces
// middleware did not run.
func GetWorkspace(c echo.Context) *workspace.Workspace {
	w, ok := c.Get(contextKeyWorkspace).(*workspace.Workspace)
	if !ok {
		return nil
	}
	return w
}

// RotateWorkspace moves the request's signed-in session to a new workspace
// id, re-issues the cookie and returns the new workspace. Called after every
// successful sign-in so an id chosen before authentication never carries it.
func RotateWorkspace(c echo.Context) (*workspace.Workspace, error) {
	wc, ok := c.Get(contextKeyCookies).(*workspaceCookies)
	w := GetWorkspace(c)
	if !ok || w == nil {
		return nil, apperror.NewInternal(errors.New("workspace middleware not installed"))
	}

	next, err := wc.resolver.Rotate(c.Request().Context(), w)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	wc.set(c, next.ID)
	c.Set(contextKeyWorkspace, next)
	return next, nil
}

func isUnauthorized(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized
}
