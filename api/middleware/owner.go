package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/monisha-uniforms/storefront-backend/api/responses"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/identity"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

const guestIDHeader = "X-Guest-Id"

// ResolveOwner seeds every request with a cart/wishlist owner. A valid
// bearer token yields an authenticated owner; otherwise the guest id header
// is used, minting and echoing back a fresh id when the client has none.
func ResolveOwner(verifier identity.Verifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := verifier.VerifyToken(ctx, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				owner := types.AuthenticatedOwner(claims.UserID)
				ctx = WithOwner(ctx, owner)
				if logg != nil {
					ctx = logg.WithOwner(ctx, string(owner.Kind), owner.ID)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			guestID := strings.TrimSpace(r.Header.Get(guestIDHeader))
			if guestID == "" {
				guestID = uuid.NewString()
			}
			w.Header().Set(guestIDHeader, guestID)

			owner := types.AnonymousOwner(guestID)
			ctx = WithOwner(ctx, owner)
			if logg != nil {
				ctx = logg.WithOwner(ctx, string(owner.Kind), owner.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose owner is not a signed-in account.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := OwnerFromContext(r.Context())
			if !owner.Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
