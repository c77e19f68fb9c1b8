package service

import (
	"testing"

	"github.com/bookstore-next/internal/config"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(
		config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1},
		config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 1},
	)

	userToken, _, err := svc.IssueUserToken(7)
	if err != nil {
		t.Fatalf("issue user token failed: %v", err)
	}
	claims, err := svc.ParseUserToken(userToken)
	if err != nil || claims.UserID != 7 {
		t.Fatalf("parse user token failed: %v %+v", err, claims)
	}
	if _, err := svc.ParseAdminToken(userToken); err == nil {
		t.Fatalf("user token must not parse as admin token")
	}

	adminToken, _, err := svc.IssueAdminToken(3, "ops", "warehouse")
	if err != nil {
		t.Fatalf("issue admin token failed: %v", err)
	}
	adminClaims, err := svc.ParseAdminToken(adminToken)
	if err != nil || adminClaims.AdminID != 3 || adminClaims.Role != "warehouse" {
		t.Fatalf("parse admin token failed: %v %+v", err, adminClaims)
	}
}

func TestTokenServiceFallbacks(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{SecretKey: "s", ExpireHours: -1}, config.JWTConfig{SecretKey: "a"})
	if got := resolveExpireHours(config.JWTConfig{ExpireHours: -1}); got.Hours() != 24 {
		t.Fatalf("non-positive expire hours should fallback to 24h, got %s", got)
	}
	if _, err := svc.ParseUserToken("not-a-token"); err == nil {
		t.Fatalf("garbage token should fail")
	}
}
