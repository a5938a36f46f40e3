package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monisha-uniforms/storefront-backend/api/middleware"
	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/api/validators"
	"github.com/monisha-uniforms/storefront-backend/internal/accounts"
	"github.com/monisha-uniforms/storefront-backend/internal/reviews"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

type reviewVotePayload struct {
	Vote string `json:"vote" validate:"required"`
}

// ReviewList returns all reviews on a product, newest first.
func ReviewList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		list, err := svc.ForProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ReviewAdd creates a review authored by the signed-in account. The display
// name shown beside the review comes from the account profile.
func ReviewAdd(svc reviews.Service, profiles accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var input reviews.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		review, err := svc.Add(ctx, owner, displayNameOf(ctx, profiles, owner), productID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// ReviewUpdate edits a review. Only the author may edit.
func ReviewUpdate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		reviewID := strings.TrimSpace(chi.URLParam(r, "reviewId"))
		if productID == "" || reviewID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product and review ids are required"))
			return
		}

		var input reviews.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		review, err := svc.Update(ctx, owner, productID, reviewID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, review)
	}
}

// ReviewDelete removes a review. Only the author may delete.
func ReviewDelete(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		reviewID := strings.TrimSpace(chi.URLParam(r, "reviewId"))
		if productID == "" || reviewID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product and review ids are required"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		if err := svc.Delete(ctx, owner, productID, reviewID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ReviewVote records, switches, or retracts a helpfulness vote.
func ReviewVote(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		reviewID := strings.TrimSpace(chi.URLParam(r, "reviewId"))
		if productID == "" || reviewID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product and review ids are required"))
			return
		}

		var payload reviewVotePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		if err := svc.Vote(ctx, owner, productID, reviewID, reviews.VoteKind(payload.Vote)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"voted": true})
	}
}

func displayNameOf(ctx context.Context, profiles accounts.Service, owner types.Owner) string {
	if profiles == nil || !owner.Authenticated() {
		return ""
	}
	profile, err := profiles.ProfileOf(ctx, owner.ID)
	if err != nil {
		return ""
	}
	return profile.DisplayName
}
