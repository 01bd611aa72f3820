package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-bytes-long"

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService(testSecret, "")

	token, err := svc.GenerateAccessToken("user-123")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected 3 JWT segments, got %d", len(parts))
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
	if claims.Type != TokenTypeAccess {
		t.Errorf("Type = %q", claims.Type)
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != AccessTokenExpiry {
		t.Errorf("lifetime = %v, want %v", lifetime, AccessTokenExpiry)
	}
}

func TestEmptyUserIDError(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	if _, err := svc.GenerateAccessToken(""); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("error = %v, want ErrEmptyUserID", err)
	}
}

func TestUserID(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	token, _ := svc.GenerateAccessToken("ana")

	id, err := svc.UserID(token)
	if err != nil || id != "ana" {
		t.Errorf("UserID = %q, %v", id, err)
	}
}

func sign(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestUserID_Rejects(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	now := time.Now()
	valid := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Subject:   "ana",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Type: TokenTypeAccess,
		}
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", sign(t, valid(), "other-secret"), ErrInvalidToken},
		{"wrong issuer", func() string { c := valid(); c.Issuer = "someone-else"; return sign(t, c, testSecret) }(), ErrInvalidToken},
		{"refresh type", func() string { c := valid(); c.Type = "refresh"; return sign(t, c, testSecret) }(), ErrInvalidToken},
		{"no subject", func() string { c := valid(); c.Subject = ""; return sign(t, c, testSecret) }(), ErrInvalidToken},
		{"no expiry", func() string { c := valid(); c.ExpiresAt = nil; return sign(t, c, testSecret) }(), ErrInvalidToken},
		{"expired", func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
			return sign(t, c, testSecret)
		}(), ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UserID(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRejectsNonHS256(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "ana",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestLeewayValidation(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	token, err := svc.generate("ana", time.Now().Add(-2*time.Minute), time.Minute+15*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("30s leeway: error = %v, want ErrExpiredToken", err)
	}
	if _, err := svc.WithLeeway(time.Minute).ValidateToken(token); err != nil {
		t.Errorf("1m leeway: unexpected error %v", err)
	}
	if svc.leeway != DefaultLeeway {
		t.Error("WithLeeway mutated the original service")
	}
}

func TestKeyRotation(t *testing.T) {
	oldSvc := NewJWTService("old-secret", "")
	oldToken, _ := oldSvc.GenerateAccessToken("ana")

	rotated := NewJWTService("new-secret", "old-secret")
	if id, err := rotated.UserID(oldToken); err != nil || id != "ana" {
		t.Errorf("old token during rotation: %q, %v", id, err)
	}

	newToken, _ := rotated.GenerateAccessToken("bia")
	if _, err := oldSvc.ValidateToken(newToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("new token validated with old secret only: %v", err)
	}

	done := NewJWTService("new-secret", "")
	if _, err := done.ValidateToken(oldToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old token after rotation: %v", err)
	}
}
