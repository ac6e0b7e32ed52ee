package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campuslink/campuslink-be/internal/auth"
	"github.com/campuslink/campuslink-be/internal/http/respond"
)

type ctxKey int

const claimsKey ctxKey = iota

// RequireAuth gates a handler behind bearer-token verification. The
// wrapped handler runs only after the token checks out; its claims are
// attached to the request context. Every failure is a uniform 401 that
// does not say why the token was rejected.
func RequireAuth(tokens *auth.TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respond.Error(w, http.StatusUnauthorized, "Missing token")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the verified claims attached by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
