package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "hms"

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

var (
	// ErrInvalidToken wraps every signature, claim and expiry failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned by Verify for a well-signed token whose
	// record is gone.
	ErrTokenRevoked = errors.New("token revoked")
)

// TokenIssuer signs HS256 bearer tokens that carry the same claims
// snapshot as a browser session, for API clients without cookies. Every
// token gets a JTI recorded in the registry.
type TokenIssuer struct {
	key      []byte
	ttl      time.Duration
	registry TokenRegistry
	now      func() time.Time
}

// NewTokenIssuer uses an in-memory registry when registry is nil.
func NewTokenIssuer(key []byte, ttl time.Duration, registry TokenRegistry) *TokenIssuer {
	if registry == nil {
		registry = NewMemoryTokenRegistry()
	}
	return &TokenIssuer{key: key, ttl: ttl, registry: registry, now: time.Now}
}

// Issue records and returns a signed token and its expiry.
func (t *TokenIssuer) Issue(ctx context.Context, c Claims) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(c.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: string(c.Role),
		Name: c.Name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	if err := t.registry.Record(ctx, jti, c.UserID, exp); err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses a token and checks that it has not been revoked.
func (t *TokenIssuer) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	c, err := t.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	active, err := t.registry.Active(ctx, c.TokenID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrTokenRevoked
	}
	return c, nil
}

// Revoke invalidates one token by its JTI.
func (t *TokenIssuer) Revoke(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	return t.registry.Revoke(ctx, jti)
}

// DeleteForUser invalidates every token issued to the user.
func (t *TokenIssuer) DeleteForUser(ctx context.Context, userID int) error {
	return t.registry.DeleteForUser(ctx, userID)
}

// Parse checks signature, issuer and expiry only. Use Verify for requests.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, tc, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.Atoi(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q", ErrInvalidToken, tc.Subject)
	}
	role, err := ParseRole(tc.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: role: %v", ErrInvalidToken, err)
	}

	if tc.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	c := &Claims{UserID: id, Role: role, Name: tc.Name, TokenID: tc.ID}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	return c, nil
}
