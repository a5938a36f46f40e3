package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/monisha-uniforms/storefront-backend/api/middleware"
	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/api/validators"
	"github.com/monisha-uniforms/storefront-backend/internal/wishlist"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

type toggleWishlistPayload struct {
	ProductID   string          `json:"productId" validate:"required"`
	DisplayName string          `json:"name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image"`
	SchoolName  string          `json:"school"`
}

// WishlistFetch returns the owner's wishlist.
func WishlistFetch(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		responses.WriteSuccess(w, svc.GetWishlist(ctx, owner))
	}
}

// WishlistToggle adds the product if absent and removes it if present.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}

		var payload toggleWishlistPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		added, err := svc.Toggle(ctx, owner, wishlist.Entry{
			ProductID:   payload.ProductID,
			DisplayName: payload.DisplayName,
			UnitPrice:   payload.UnitPrice,
			ImageURL:    payload.ImageURL,
			SchoolName:  payload.SchoolName,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"added": added})
	}
}

// WishlistRemove deletes one product from the owner's wishlist.
func WishlistRemove(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		removed, err := svc.Remove(ctx, owner, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": removed})
	}
}

// WishlistContains answers whether the product is wishlisted.
func WishlistContains(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		responses.WriteSuccess(w, map[string]bool{"inWishlist": svc.Contains(ctx, owner, productID)})
	}
}
