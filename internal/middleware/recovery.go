package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
)

// Recovery turns a handler panic into a 500 AppError. The panicking
// workspace stays registered; only the request fails.
func Recovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				attrs := []any{
					slog.Any("panic", r),
					slog.String("route", c.Request().Method+" "+c.Path()),
					slog.String("stack", string(debug.Stack())),
				}
				if w := GetWorkspace(c); w != nil {
					attrs = append(attrs, slog.String("workspace", w.ID))
				}
				slog.Error("handler panicked", attrs...)
				err = apperror.NewInternal(fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
