package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier returns the identity id carried by a valid token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid token and stores the
// verified identity id in the request context. The user record itself is
// not loaded.
func AuthMiddleware(headerName string, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, headerName)
			if token == "" {
				writeErrorResponse(w, http.StatusUnauthorized, "No token, authorization denied", nil)
				return
			}

			identityID, err := verifier.Verify(token)
			if err != nil {
				writeErrorResponse(w, http.StatusUnauthorized, "Token is not valid", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identityID)))
		})
	}
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}

func ContextWithIdentity(ctx context.Context, identityID string) context.Context {
	return context.WithValue(ctx, identityKey, identityID)
}

func tokenFromRequest(r *http.Request, headerName string) string {
	if token := strings.TrimSpace(r.Header.Get(headerName)); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
