package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/monisha-uniforms/storefront-backend/api/middleware"
	"github.com/monisha-uniforms/storefront-backend/api/responses"
	"github.com/monisha-uniforms/storefront-backend/api/validators"
	"github.com/monisha-uniforms/storefront-backend/internal/cart"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

type addCartLinePayload struct {
	ProductID   string          `json:"productId" validate:"required"`
	DisplayName string          `json:"name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"price"`
	Size        string          `json:"size"`
	Quantity    int64           `json:"quantity"`
	ImageURL    string          `json:"image"`
	SchoolName  string          `json:"school"`
}

type updateQuantityPayload struct {
	Quantity int64 `json:"quantity" validate:"required"`
}

type cartResponse struct {
	Items    []cart.Line     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int64           `json:"count"`
}

func newCartResponse(lines []cart.Line) cartResponse {
	return cartResponse{
		Items:    lines,
		Subtotal: cart.Subtotal(lines),
		Count:    cart.ItemCount(lines),
	}
}

// CartFetch returns the owner's cart with its computed totals.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		lines := svc.GetCart(ctx, owner)
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

// CartAdd upserts a line into the owner's cart and returns the refreshed cart.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartLinePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		stored, err := svc.AddToCart(ctx, owner, cart.Line{
			ProductID:   payload.ProductID,
			DisplayName: payload.DisplayName,
			UnitPrice:   payload.UnitPrice,
			Size:        payload.Size,
			Quantity:    payload.Quantity,
			ImageURL:    payload.ImageURL,
			SchoolName:  payload.SchoolName,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, stored)
	}
}

// CartUpdateQuantity sets a line's quantity. Zero or negative removes the line.
func CartUpdateQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		lineKey := strings.TrimSpace(chi.URLParam(r, "lineKey"))
		if lineKey == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line key is required"))
			return
		}

		var payload updateQuantityPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		if payload.Quantity <= 0 {
			if _, err := svc.RemoveFromCart(ctx, owner, lineKey); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		} else if err := svc.UpdateQuantity(ctx, owner, lineKey, payload.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(svc.GetCart(ctx, owner)))
	}
}

// CartRemove deletes one line from the owner's cart.
func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		lineKey := strings.TrimSpace(chi.URLParam(r, "lineKey"))
		if lineKey == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line key is required"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		removed, err := svc.RemoveFromCart(ctx, owner, lineKey)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": removed})
	}
}

// CartClear empties the owner's cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		if err := svc.ClearCart(ctx, owner); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// CartContains answers whether any line holds the given product.
func CartContains(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		responses.WriteSuccess(w, map[string]bool{"inCart": svc.Contains(ctx, owner, productID)})
	}
}

// CartStream pushes the owner's cart over server-sent events. The first event
// carries the current state; later events fire on every change, including
// changes made from other devices or tabs on the same owner.
func CartStream(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		owner := middleware.OwnerFromContext(ctx)
		updates := make(chan []cart.Line, 4)
		stop, err := svc.Subscribe(ctx, owner, func(lines []cart.Line) {
			select {
			case updates <- lines:
			default:
			}
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer stop()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		writeCartEvent(w, svc.GetCart(ctx, owner))
		flusher.Flush()

		heartbeat := time.NewTicker(25 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case lines := <-updates:
				writeCartEvent(w, lines)
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeCartEvent(w http.ResponseWriter, lines []cart.Line) {
	data, err := json.Marshal(newCartResponse(lines))
	if err != nil {
		return
	}
	w.Write([]byte("event: cart\ndata: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}
