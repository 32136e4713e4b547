package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sendrec/galleryplayer/internal/httputil"
)

type SecurityConfig struct {
	BaseURL         string
	StorageEndpoint string
}

// securityHeaders sets the default policy for every response and stores the
// CSP nonce in the request context. Player routes replace the CSP with their own.
func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	storageSuffix := ""
	if cfg.StorageEndpoint != "" {
		storageSuffix = " " + cfg.StorageEndpoint
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := httputil.GenerateNonce()
			if err != nil {
				slog.Error("server: nonce generation failed", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			ctx := httputil.ContextWithNonce(r.Context(), nonce)

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), autoplay=(self)")

			// Linked gallery items can live on any https host.
			csp := fmt.Sprintf(
				"default-src 'self'; img-src 'self' data: https:; media-src 'self' https:; script-src 'self' 'nonce-%s'; style-src 'self' 'nonce-%s'; frame-src 'self'; connect-src 'self'%s; frame-ancestors 'self';",
				nonce, nonce, storageSuffix,
			)
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
