package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

// Recovery turns a handler panic into an error wrapping apperr.ErrInternal,
// so the error handler answers 500 in the caller's format. The panic value
// is never unwrapped into the chain: a panic carrying ErrNotFound is still
// a 500. http.ErrAbortHandler is re-raised so net/http aborts the response.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				err = fmt.Errorf("%w: panic: %v", apperr.ErrInternal, r)

				req := c.Request()
				rid, _ := c.Get("request_id").(string)
				evt := logger.Error().
					Str("request_id", rid).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack()))
				if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
					evt = evt.Int("user_id", claims.UserID).Str("role", string(claims.Role))
				}
				evt.Msg("panic recovered")
			}()
			return next(c)
		}
	}
}
