package middleware

import (
	"context"

	"github.com/cortex-platform/gateway/auth"
)

// Context key type to avoid collisions
type contextKey string

// identityKey is the context key for the authenticated caller
const identityKey contextKey = "identity"

// WithIdentity adds an authenticated identity to the context
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated identity from context.
// A nil result means the request was public or canary-skipped, not that
// authentication failed; downstream handlers must treat absence as "no
// authenticated user".
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if val := ctx.Value(identityKey); val != nil {
		if identity, ok := val.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}
