package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

type contextKey string

const nonceKey contextKey = "csp-nonce"

// GenerateNonce returns 16 random bytes, base64url encoded, for CSP script and
// style nonces.
func GenerateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func ContextWithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey, nonce)
}

func NonceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(nonceKey).(string); ok {
		return v
	}
	return ""
}
