package security

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/golang-jwt/jwt"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.StandardClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestVerifyAndDecode_ValidToken(t *testing.T) {
	key := testKey(t)
	v := NewJWTVerifier(&key.PublicKey, "auth-service", "chat-service", 30*time.Second)

	now := time.Now()
	token := sign(t, key, jwt.StandardClaims{
		Subject:   "7",
		Issuer:    "auth-service",
		Audience:  "chat-service",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})

	id, err := v.VerifyAndDecode(token)
	if err != nil {
		t.Fatalf("VerifyAndDecode: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected subject 7, got %d", id)
	}
}

func TestVerifyAndDecode_Rejections(t *testing.T) {
	key := testKey(t)
	otherKey := testKey(t)
	v := NewJWTVerifier(&key.PublicKey, "auth-service", "chat-service", 0)

	now := time.Now()
	good := jwt.StandardClaims{
		Subject:   "7",
		Issuer:    "auth-service",
		Audience:  "chat-service",
		ExpiresAt: now.Add(time.Hour).Unix(),
	}

	expired := good
	expired.ExpiresAt = now.Add(-time.Hour).Unix()

	wrongIssuer := good
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := good
	wrongAudience.Audience = "other-service"

	noSubject := good
	noSubject.Subject = ""

	badSubject := good
	badSubject.Subject = "abc"

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", sign(t, otherKey, good)},
		{"expired", sign(t, key, expired)},
		{"wrong issuer", sign(t, key, wrongIssuer)},
		{"wrong audience", sign(t, key, wrongAudience)},
		{"missing subject", sign(t, key, noSubject)},
		{"non-numeric subject", sign(t, key, badSubject)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.VerifyAndDecode(tc.token); !errors.Is(err, domain.ErrInvalidCredential) {
				t.Fatalf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestVerifyAndDecode_ClockSkewTolerance(t *testing.T) {
	key := testKey(t)
	v := NewJWTVerifier(&key.PublicKey, "", "", 30*time.Second)

	now := time.Now()
	justExpired := sign(t, key, jwt.StandardClaims{
		Subject:   "7",
		ExpiresAt: now.Add(-10 * time.Second).Unix(),
	})

	if _, err := v.VerifyAndDecode(justExpired); err != nil {
		t.Fatalf("token within skew window rejected: %v", err)
	}
}
