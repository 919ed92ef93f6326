package service

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key")

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Minute)

	token, err := svc.GenerateToken(99)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 99 {
		t.Fatalf("expected user id 99, got %d", uid)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(testSigningKey, 0)
	if svc.ttl != defaultTokenTTL {
		t.Fatalf("ttl: want %v, got %v", defaultTokenTTL, svc.ttl)
	}
}

func TestTokenService_GenerateWithoutKey(t *testing.T) {
	svc := NewTokenService(nil, time.Minute)
	if _, err := svc.GenerateToken(1); err == nil {
		t.Fatalf("expected error without signing key")
	}
}

func TestTokenService_ParseToken_Malformed(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Minute)
	if _, err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestTokenService_ParseToken_InvalidSignature(t *testing.T) {
	other := NewTokenService([]byte("different-key"), time.Minute)
	badToken, err := other.GenerateToken(5)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	svc := NewTokenService(testSigningKey, time.Minute)
	if _, err := svc.ParseToken(badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestTokenService_ParseToken_Expired(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	expired, err := svc.GenerateToken(11)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ParseToken(expired); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestTokenService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour)

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}

	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: 12,
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}
