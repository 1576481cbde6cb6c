// Package identity issues and verifies user session tokens and exposes the
// gin middleware that authenticates API requests with them.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeUser = "user"

// UserTokenClaims are the JWT claims for a user session token.
type UserTokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Type   string `json:"type"`
}

// ParsedUserID returns the token's user ID as a UUID.
func (c *UserTokenClaims) ParsedUserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token user id: %w", err)
	}
	return id, nil
}

// UserTokenIssuer issues and verifies HS256 user session JWTs.
type UserTokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewUserTokenIssuer creates a UserTokenIssuer. A zero ttl defaults to 24 hours.
func NewUserTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*UserTokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("user token secret must be at least 32 bytes")
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &UserTokenIssuer{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issue creates a signed session token for userID.
func (u *UserTokenIssuer) Issue(userID uuid.UUID, email string) (string, error) {
	now := time.Now().UTC()
	claims := UserTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.ttl)),
			ID:        uuid.New().String(),
		},
		UserID: userID.String(),
		Email:  email,
		Type:   tokenTypeUser,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (u *UserTokenIssuer) Verify(tokenStr string) (*UserTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&UserTokenClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return u.secret, nil
		},
		jwt.WithIssuer(u.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify user token: %w", err)
	}
	claims, ok := token.Claims.(*UserTokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid user token claims")
	}
	if claims.Type != tokenTypeUser {
		return nil, errors.New("not a user session token")
	}
	return claims, nil
}
