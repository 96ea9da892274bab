package auth

import (
	"context"

	"smartconnect/internal/models"
)

type ctxKey string

const (
	claimsKey    ctxKey = "claims"
	principalKey ctxKey = "principal"
)

// Claims is what a verified token asserts: the identity id and token kind.
type Claims struct {
	Subject   string
	TokenID   string
	TokenType string
}

// Principal is the caller after authorization succeeded.
type Principal struct {
	UserID    string
	Username  string
	Superuser bool
	ProfileID *string
	Role      models.Role
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok && c.Subject != ""
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}
