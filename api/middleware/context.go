package middleware

import (
	"context"

	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

type contextKey string

const ctxOwner contextKey = "owner"

// OwnerFromContext returns the request owner seeded by ResolveOwner.
func OwnerFromContext(ctx context.Context) types.Owner {
	if ctx == nil {
		return types.Owner{}
	}
	if v, ok := ctx.Value(ctxOwner).(types.Owner); ok {
		return v
	}
	return types.Owner{}
}

// WithOwner injects the owner into the context.
func WithOwner(ctx context.Context, owner types.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}
