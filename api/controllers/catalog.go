package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/api/validators"
	"github.com/monisha-uniforms/storefront-backend/internal/catalog"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

const maxCatalogLimit = 50

// CatalogList returns the product catalog, optionally filtered by category,
// school, or search term via query params.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var (
			products []catalog.Product
			err      error
		)
		switch {
		case validators.QueryString(r, "search", "") != "":
			products, err = svc.Search(ctx, validators.QueryString(r, "search", ""))
		case validators.QueryString(r, "category", "") != "":
			products, err = svc.ByCategory(ctx, validators.QueryString(r, "category", ""))
		case validators.QueryString(r, "school", "") != "":
			products, err = svc.BySchool(ctx, validators.QueryString(r, "school", ""))
		default:
			products, err = svc.List(ctx)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// CatalogRecent returns the newest arrivals.
func CatalogRecent(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit := validators.QueryInt(r, "limit", 8, maxCatalogLimit)
		products, err := svc.Recent(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// CatalogTopRated returns the best reviewed products.
func CatalogTopRated(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit := validators.QueryInt(r, "limit", 8, maxCatalogLimit)
		products, err := svc.TopRated(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// CatalogDetail returns a single product.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "productId"))
		if id == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		product, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// SchoolList returns the school directory.
func SchoolList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		schools, err := svc.Schools(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, schools)
	}
}

// SchoolDetail returns a single school.
func SchoolDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "schoolId"))
		if id == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "school id is required"))
			return
		}

		school, err := svc.School(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, school)
	}
}
