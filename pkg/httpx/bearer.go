package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/bartender/pkg/slogx"
)

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively (RFC 7235 section 2.1).
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// BearerValidator turns a bearer token into the subject it was issued for.
type BearerValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// AuthnMiddleware rejects requests without a valid bearer token and stores
// the token's subject in the request context.
func AuthnMiddleware(v BearerValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := BearerToken(r)
			if !ok {
				WriteBearerError(w, "missing bearer token")
				return
			}

			subject, err := v.Validate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("bearer rejected", "err", err)
				WriteBearerError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(ctx, subject)))
		})
	}
}

// WriteBearerError writes an RFC 6750 invalid_token challenge.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc, nil)
}
