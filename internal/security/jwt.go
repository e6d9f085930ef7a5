package security

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/golang-jwt/jwt"
)

// JWTVerifier validates RS256 access tokens issued by auth-service and
// decodes the subject. Issuance stays on the auth side; this service only
// consumes the public key.
type JWTVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewJWTVerifier(public *rsa.PublicKey, issuer, audience string, clockSkew time.Duration) *JWTVerifier {
	return &JWTVerifier{
		public:    public,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}
}

type accessClaims struct {
	jwt.StandardClaims
}

// VerifyAndDecode checks the token signature and claims and returns the
// subject user id. Every failure mode (bad signature, malformed,
// wrong issuer/audience, expired) maps to domain.ErrInvalidCredential.
func (v *JWTVerifier) VerifyAndDecode(tokenStr string) (int64, error) {
	claims := &accessClaims{}
	// exp/nbf проверяются ниже вручную, с допуском clockSkew
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, domain.ErrInvalidCredential
		}
		return v.public, nil
	})
	if err != nil {
		return 0, domain.ErrInvalidCredential
	}
	if !token.Valid {
		return 0, domain.ErrInvalidCredential
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return 0, domain.ErrInvalidCredential
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return 0, domain.ErrInvalidCredential
	}

	// временные клеймы с допуском clockSkew
	now := time.Now()
	if claims.ExpiresAt > 0 && now.After(time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)) {
		return 0, domain.ErrInvalidCredential
	}
	if claims.NotBefore > 0 && now.Before(time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)) {
		return 0, domain.ErrInvalidCredential
	}

	if claims.Subject == "" {
		return 0, domain.ErrInvalidCredential
	}
	var id int64
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id <= 0 {
		return 0, domain.ErrInvalidCredential
	}

	return id, nil
}

func LoadRSAPublicKeyFromPEM(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", path, err)
	}

	return pub, nil
}
