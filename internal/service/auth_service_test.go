package service

import (
	"testing"
	"time"

	"github.com/qugame/twentyq-backend/internal/config"
)

func newTestAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // MinCost for test speed
	})
}

func TestPlayerTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService()

	token, err := svc.GeneratePlayerToken(42, "ada")
	if err != nil {
		t.Fatalf("GeneratePlayerToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypePlayer {
		t.Errorf("token type = %q", claims.TokenType)
	}
	if claims.UserID != 42 || claims.Username != "ada" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAdminTokenType(t *testing.T) {
	svc := newTestAuthService()

	token, err := svc.GenerateAdminToken(7)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeAdmin {
		t.Errorf("token type = %q", claims.TokenType)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService()
	other := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})

	token, err := svc.GeneratePlayerToken(42, "ada")
	if err != nil {
		t.Fatalf("GeneratePlayerToken: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	svc := newTestAuthService()

	hash, err := svc.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := svc.CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("CheckPassword rejected the right password: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong"); err == nil {
		t.Error("CheckPassword accepted a wrong password")
	}
}
