package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mietgram/campus-api/internal/core/domain"
)

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := NewJWTIssuer("secret", 0)

	token, err := issuer.Issue("65f0c0ffee")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != "65f0c0ffee" {
		t.Fatalf("unexpected id %q", id)
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil }); err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != DefaultTokenTTL {
		t.Fatalf("expected 7 day validity, got %v", ttl)
	}
}

func TestJWTIssuer_RejectsWrongSecret(t *testing.T) {
	token, _ := NewJWTIssuer("secret", time.Hour).Issue("u1")
	if _, err := NewJWTIssuer("other", time.Hour).Parse(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTIssuer_RejectsExpired(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _ := issuer.Issue("u1")

	if _, err := NewJWTIssuer("secret", time.Hour).Parse(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
