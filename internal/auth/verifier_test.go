package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/inkwell/internal/model"
)

// generateTestKey はテスト用のRSA鍵ペアと公開鍵PEMを生成する。
func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("failed to marshal public key: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})

	return key, string(pemBytes)
}

// signToken はテスト用のセッショントークンを署名する。
func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifier_Verify_ValidToken(t *testing.T) {
	key, pub := generateTestKey(t)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub":       "user_2abcDEF",
		"username":  "hanako",
		"email":     "hanako@example.com",
		"image_url": "https://img.example.com/hanako.png",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	p, err := v.Verify(tokenStr)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if p.ClerkUserID != "user_2abcDEF" {
		t.Errorf("ClerkUserID = %q, want %q", p.ClerkUserID, "user_2abcDEF")
	}
	if p.Username != "hanako" {
		t.Errorf("Username = %q, want %q", p.Username, "hanako")
	}
	if p.Email != "hanako@example.com" {
		t.Errorf("Email = %q", p.Email)
	}
	if p.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q (default)", p.Role, model.RoleUser)
	}
	if p.IsAdmin() {
		t.Error("IsAdmin() = true, want false")
	}
}

func TestVerifier_Verify_AdminRoleFromMetadata(t *testing.T) {
	key, pub := generateTestKey(t)
	v, _ := NewVerifier(pub)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub":      "user_admin1",
		"metadata": map[string]any{"role": "admin"},
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	p, err := v.Verify(tokenStr)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !p.IsAdmin() {
		t.Error("IsAdmin() = false, want true")
	}
}

func TestVerifier_Verify_PictureFallback(t *testing.T) {
	key, pub := generateTestKey(t)
	v, _ := NewVerifier(pub)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub":     "user_pic",
		"picture": "https://img.example.com/p.png",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	p, err := v.Verify(tokenStr)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.ImageURL != "https://img.example.com/p.png" {
		t.Errorf("ImageURL = %q, want picture claim value", p.ImageURL)
	}
}

func TestVerifier_Verify_ExpiredToken(t *testing.T) {
	key, pub := generateTestKey(t)
	v, _ := NewVerifier(pub)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub": "user_expired",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenStr); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestVerifier_Verify_WrongKey(t *testing.T) {
	_, pub := generateTestKey(t)
	otherKey, _ := generateTestKey(t)
	v, _ := NewVerifier(pub)

	tokenStr := signToken(t, otherKey, jwt.MapClaims{
		"sub": "user_forged",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenStr); err == nil {
		t.Error("expected error for token signed with a different key")
	}
}

func TestVerifier_Verify_RejectsHMACAlgorithm(t *testing.T) {
	_, pub := generateTestKey(t)
	v, _ := NewVerifier(pub)

	// alg=HS256でPEM文字列を鍵として署名したトークンは拒否される
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_alg",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(pub))
	if err != nil {
		t.Fatalf("failed to sign HS256 token: %v", err)
	}

	if _, err := v.Verify(signed); err == nil {
		t.Error("expected error for HS256-signed token")
	}
}

func TestVerifier_Verify_MissingSubject(t *testing.T) {
	key, pub := generateTestKey(t)
	v, _ := NewVerifier(pub)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenStr); err == nil {
		t.Error("expected error for token without subject")
	}
}

func TestNewVerifier_InvalidPEM(t *testing.T) {
	if _, err := NewVerifier("not a pem"); err == nil {
		t.Error("expected error for invalid PEM")
	}
}
