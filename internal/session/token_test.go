package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/churnlabs/churnguard/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("platform-side-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDecodeEmbedToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token := makeToken(t, jwt.MapClaims{
		"businessId": "biz_1",
		"iat":        now.Add(-time.Minute).Unix(),
		"exp":        now.Add(time.Hour).Unix(),
	})

	sess, err := session.DecodeEmbedToken(token, now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.BusinessID != "biz_1" {
		t.Fatalf("unexpected business id %q", sess.BusinessID)
	}
	if sess.ExpiresAt == nil || !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", sess.ExpiresAt)
	}
}

func TestDecodeEmbedTokenWithoutExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token := makeToken(t, jwt.MapClaims{"businessId": "biz_1"})

	sess, err := session.DecodeEmbedToken(token, now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.BusinessID != "biz_1" {
		t.Fatalf("unexpected business id %q", sess.BusinessID)
	}
}

func TestDecodeEmbedTokenExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token := makeToken(t, jwt.MapClaims{
		"businessId": "biz_1",
		"exp":        now.Add(-time.Minute).Unix(),
	})

	_, err := session.DecodeEmbedToken(token, now)
	if !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeEmbedTokenMissingBusiness(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token := makeToken(t, jwt.MapClaims{"sub": "user_1"})

	_, err := session.DecodeEmbedToken(token, now)
	if !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeEmbedTokenGarbage(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, err := session.DecodeEmbedToken("", now); !errors.Is(err, session.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := session.DecodeEmbedToken("not.a.jwt", now); !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
