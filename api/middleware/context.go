package middleware

import (
	"context"

	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxIdentity contextKey = "identity"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the signed-in profile, if the request was authenticated.
func IdentityFromContext(ctx context.Context) (pkgauth.IdentityPayload, bool) {
	if ctx == nil {
		return pkgauth.IdentityPayload{}, false
	}
	v, ok := ctx.Value(ctxIdentity).(pkgauth.IdentityPayload)
	return v, ok && v.UserID != ""
}

// WithIdentity injects the signed-in profile into the context.
func WithIdentity(ctx context.Context, identity pkgauth.IdentityPayload) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, identity.UserID)
	return context.WithValue(ctx, ctxIdentity, identity)
}
