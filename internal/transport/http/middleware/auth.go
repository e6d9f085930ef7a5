package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

type CredentialVerifier interface {
	VerifyAndDecode(token string) (int64, error)
}

type IdentitySvc interface {
	FindIdentity(ctx context.Context, id int64) (domain.Identity, error)
}

// Auth validates the Bearer token with the same verifier the ws gateway
// uses and puts the resolved Identity into the request context.
func Auth(verifier CredentialVerifier, identities IdentitySvc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			subject, err := verifier.VerifyAndDecode(strings.TrimSpace(auth[7:]))
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			identity, err := identities.FindIdentity(r.Context(), subject)
			if err != nil {
				http.Error(w, `{"error":"unknown identity"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return v, ok
}
