package auth

import (
	"errors"
	"testing"
	"time"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-key",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "puretrust-api",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, jti, err := m.GenerateAccessToken(7, "ops@puretrustgold.com", "admin", 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if jti == "" {
		t.Fatal("expected a non-empty JTI")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.AdminID != 7 {
		t.Errorf("AdminID = %d", claims.AdminID)
	}
	if claims.Email != "ops@puretrustgold.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("TokenVersion = %d", claims.TokenVersion)
	}
	if claims.Issuer != "puretrust-api" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
	if claims.ID != jti {
		t.Errorf("claims.ID = %q, want %q", claims.ID, jti)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := testManager()
	other := NewJWTManager(JWTConfig{Secret: "a-different-secret", Expiry: time.Hour, RefreshExpiry: time.Hour})

	token, _, err := m.GenerateAccessToken(1, "ops@puretrustgold.com", "admin", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret:        "test-secret-key",
		Expiry:        -time.Minute,
		RefreshExpiry: time.Hour,
	})

	token, _, err := m.GenerateAccessToken(1, "ops@puretrustgold.com", "admin", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	m := testManager()

	refresh, _, err := m.GenerateRefreshToken(9, "ops@puretrustgold.com", "admin", 2)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	access, _, err := m.RefreshAccessToken(refresh, 2)
	if err != nil {
		t.Fatalf("RefreshAccessToken: %v", err)
	}

	claims, err := m.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q", claims.TokenType)
	}
	if claims.AdminID != 9 {
		t.Errorf("AdminID = %d", claims.AdminID)
	}
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	m := testManager()

	access, _, err := m.GenerateAccessToken(1, "ops@puretrustgold.com", "admin", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, _, err := m.RefreshAccessToken(access, 0); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRefreshAccessTokenRejectsStaleVersion(t *testing.T) {
	m := testManager()

	refresh, _, err := m.GenerateRefreshToken(1, "ops@puretrustgold.com", "admin", 1)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	if _, _, err := m.RefreshAccessToken(refresh, 2); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after version bump, got %v", err)
	}
}
