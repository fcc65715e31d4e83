package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
)

// RoleLookup re-reads a user's current role. It returns an error wrapping
// apperr.ErrNotFound when the user no longer exists.
type RoleLookup interface {
	CurrentRole(ctx context.Context, userID int) (Role, error)
}

type AuthConfig struct {
	Sessions SessionStore
	Cookie   SessionCookie
	// Tokens may be nil, in which case bearer tokens are ignored.
	Tokens *TokenIssuer
	// Refresh, when set, replaces the snapshot role with the stored one on
	// every request.
	Refresh RoleLookup
	Skipper func(c echo.Context) bool
}

// Authenticate resolves the caller's identity from the session cookie or a
// bearer token and stores the claims in the request context. It never
// rejects a request; Require does that.
func Authenticate(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			ctx := c.Request().Context()
			claims, err := resolveClaims(c, cfg)
			if err != nil {
				return err
			}
			if claims == nil {
				return next(c)
			}

			if cfg.Refresh != nil {
				role, err := cfg.Refresh.CurrentRole(ctx, claims.UserID)
				if errors.Is(err, apperr.ErrNotFound) {
					return next(c)
				}
				if err != nil {
					return err
				}
				claims.Role = role
			}

			c.SetRequest(c.Request().WithContext(WithClaims(ctx, claims)))
			return next(c)
		}
	}
}

func resolveClaims(c echo.Context, cfg AuthConfig) (*Claims, error) {
	if id := cfg.Cookie.Read(c); id != "" && cfg.Sessions != nil {
		sess, err := cfg.Sessions.Get(c.Request().Context(), id)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			claims := sess.Claims
			c.Set("session_id", sess.ID)
			return &claims, nil
		}
	}

	if cfg.Tokens == nil {
		return nil, nil
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, nil
	}
	claims, err := cfg.Tokens.Verify(c.Request().Context(), strings.TrimSpace(token))
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked) {
		// An unusable or revoked token leaves the request anonymous.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IsAPIRequest reports whether the caller expects JSON rather than HTML.
func IsAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
