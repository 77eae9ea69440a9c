// Package session decodes platform-issued embed tokens for iframe context.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmbedSession is the claims subset the dashboard embed needs.
type EmbedSession struct {
	BusinessID string
	IssuedAt   *time.Time
	ExpiresAt  *time.Time
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

type embedClaims struct {
	BusinessID string `json:"businessId"`
	jwt.RegisteredClaims
}

// DecodeEmbedToken extracts the business scope from an embed token. The
// platform signs and verifies these tokens before they reach the app, so the
// payload is decoded without signature verification; only the claim shape
// and expiry are validated here.
func DecodeEmbedToken(token string, now time.Time) (EmbedSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return EmbedSession{}, ErrMissingToken
	}

	var claims embedClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return EmbedSession{}, ErrInvalidToken
	}

	if strings.TrimSpace(claims.BusinessID) == "" {
		return EmbedSession{}, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return EmbedSession{}, ErrInvalidToken
	}

	session := EmbedSession{BusinessID: claims.BusinessID}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		session.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		session.ExpiresAt = &t
	}
	return session, nil
}
