package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFromContext returns the session claims stashed by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// RequireAuth rejects requests without a valid session token (cookie first,
// then bearer header) and stores the verified claims in the context.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := auth.ExtractToken(r)
			if tokenString == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "session token required")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuth; non-admin sessions get a 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "session token required")
			return
		}
		if claims.Role != models.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminKey gates the admin-data surface behind a static shared
// secret in the X-Admin-Key header, compared in constant time. An
// unconfigured server key is a deployment error, reported as 500.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "admin API key not configured")
				return
			}

			submitted := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(submitted), []byte(key)) != 1 {
				writeAuthError(w, http.StatusForbidden, "forbidden", "invalid admin API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
