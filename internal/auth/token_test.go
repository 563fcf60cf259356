package auth

import (
	"errors"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", "quiz-session-service", time.Hour)
	raw, err := svc.Issue(domain.User{ID: "user_1", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user_1" || claims.Role != domain.RoleStudent {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	svc := NewTokenService("secret", "quiz-session-service", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	raw, err := svc.Issue(domain.User{ID: "user_1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.Parse(raw); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseRejectsForeignSecretAndIssuer(t *testing.T) {
	raw, _ := NewTokenService("other", "quiz-session-service", time.Hour).Issue(domain.User{ID: "u"})
	svc := NewTokenService("secret", "quiz-session-service", time.Hour)
	if _, err := svc.Parse(raw); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	raw, _ = NewTokenService("secret", "someone-else", time.Hour).Issue(domain.User{ID: "u"})
	if _, err := svc.Parse(raw); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected issuer failure, got %v", err)
	}
	if _, err := svc.Parse("not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}

func TestDefaultTTL(t *testing.T) {
	svc := NewTokenService("secret", "", 0)
	if svc.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %v", svc.ttl)
	}
}
