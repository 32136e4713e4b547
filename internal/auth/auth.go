package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sendrec/galleryplayer/internal/httputil"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

// Middleware rejects requests without a valid bearer access token and stores
// the owner ID in the request context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := ValidateToken(secret, tokenStr)
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.TokenType != accessTokenType || claims.OwnerID == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid token type")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithOwnerID(r.Context(), claims.OwnerID)))
		})
	}
}

func ContextWithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

func OwnerIDFromContext(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerIDKey).(string)
	return ownerID
}
