package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

const LoginPath = "/login"

// Require admits the request only when the caller is authenticated and the
// role in their claims is a member of allowed. Anonymous web requests are
// redirected to the login page; anonymous API requests get 401. There is
// no implicit admin bypass.
func Require(allowed RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c.Request().Context())
			if !ok {
				if IsAPIRequest(c) {
					return apperr.ErrUnauthenticated
				}
				return c.Redirect(http.StatusSeeOther, LoginPath+"?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			}
			if !allowed.Contains(claims.Role) {
				return fmt.Errorf("required role: %s: %w", allowed, apperr.ErrForbidden)
			}
			return next(c)
		}
	}
}

// RequireOp guards a route with the role set registered for op.
func RequireOp(op Operation) echo.MiddlewareFunc {
	allowed, ok := policy[op]
	if !ok {
		panic(fmt.Sprintf("auth: no policy for operation %q", op))
	}
	return Require(allowed)
}

// SafeRedirect returns next when it is a local path, else fallback.
func SafeRedirect(next, fallback string) string {
	if len(next) < 1 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}
