package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/api/validators"
	"github.com/monisha-uniforms/storefront-backend/internal/inventory"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

// InventoryStock reports the sellable quantity of a product, optionally
// narrowed to a variant and size via query params. Missing inventory data
// resolves to the default stock level instead of an error.
func InventoryStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		variantID := validators.QueryString(r, "variant", "")
		size := validators.QueryString(r, "size", "")

		stock := svc.StockByVariant(ctx, productID, variantID, size)
		responses.WriteSuccess(w, map[string]any{
			"productId": productID,
			"variantId": variantID,
			"size":      size,
			"stock":     stock,
		})
	}
}
