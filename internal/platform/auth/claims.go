package auth

import (
	"context"
	"time"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// Claims is the identity snapshot taken at login. The role is the one the
// user held at that moment and is not re-read unless role refresh is on.
type Claims struct {
	UserID   int       `json:"id"`
	Role     Role      `json:"role"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"-"`
	// TokenID is the JTI when the claims came from a bearer token.
	TokenID string `json:"-"`
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated user id, or 0.
func UserIDFromContext(ctx context.Context) int {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID
	}
	return 0
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) Role {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Role
	}
	return ""
}
