package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and verifies HS256 access/refresh token pairs.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

type tokenClaims struct {
	Type string `json:"token_type"`
	jwt.RegisteredClaims
}

func (t *Tokens) sign(userID, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Pair returns a fresh access and refresh token for userID.
func (t *Tokens) Pair(userID string) (access, refresh string, err error) {
	if access, err = t.sign(userID, TokenAccess, t.accessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = t.sign(userID, TokenRefresh, t.refreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (t *Tokens) Refresh(refresh string) (string, error) {
	c, err := t.Verify(refresh)
	if err != nil {
		return "", err
	}
	if c.TokenType != TokenRefresh {
		return "", ErrInvalidToken
	}
	return t.sign(c.Subject, TokenAccess, t.accessTTL)
}

// Verify checks signature and expiry of any token issued by t.
func (t *Tokens) Verify(tokenStr string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &tc, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if tc.Subject == "" || (tc.Type != TokenAccess && tc.Type != TokenRefresh) {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: tc.Subject, TokenID: tc.ID, TokenType: tc.Type}, nil
}
