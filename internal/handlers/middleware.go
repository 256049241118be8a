package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/campuslink/chatcore/internal/services"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// Auth verifies the bearer token and stores the session claims on the request
// context. The messaging core only ever sees an authenticated user id + role.
func Auth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.VerifyToken(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (*services.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.SessionClaims)
	return claims, ok
}
