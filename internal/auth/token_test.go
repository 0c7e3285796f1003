package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/whybepb/campus-fixit/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("got user %q", claims.UserID)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("got role %q", claims.Role)
	}
}

func TestExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	claims := &Claims{
		UserID: "user-1",
		Role:   domain.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tm.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("user-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("signature mismatch must not read as expiry")
	}
}

func TestGarbageToken(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	if _, err := tm.ParseToken("not.a.jwt"); err == nil {
		t.Error("expected parse failure")
	}
}
