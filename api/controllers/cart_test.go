package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/monisha-uniforms/storefront-backend/api/middleware"
	"github.com/monisha-uniforms/storefront-backend/internal/cart"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

type stubCartService struct {
	lines      []cart.Line
	added      cart.Line
	addErr     error
	gotOwner   types.Owner
	gotLine    cart.Line
	contained  bool
	removedKey string
	updatedKey string
	updatedQty int64
}

func (s *stubCartService) GetCart(_ context.Context, owner types.Owner) []cart.Line {
	s.gotOwner = owner
	return s.lines
}

func (s *stubCartService) AddToCart(_ context.Context, owner types.Owner, candidate cart.Line) (cart.Line, error) {
	s.gotOwner = owner
	s.gotLine = candidate
	if s.addErr != nil {
		return cart.Line{}, s.addErr
	}
	return s.added, nil
}

func (s *stubCartService) RemoveFromCart(_ context.Context, _ types.Owner, key string) (bool, error) {
	s.removedKey = key
	return true, nil
}

func (s *stubCartService) UpdateQuantity(_ context.Context, _ types.Owner, key string, quantity int64) error {
	s.updatedKey = key
	s.updatedQty = quantity
	return nil
}

func (s *stubCartService) ClearCart(_ context.Context, _ types.Owner) error { return nil }

func (s *stubCartService) Contains(_ context.Context, _ types.Owner, _ string) bool {
	return s.contained
}

func (s *stubCartService) Subscribe(_ context.Context, _ types.Owner, _ func([]cart.Line)) (func(), error) {
	return func() {}, nil
}

func (s *stubCartService) MergeGuestCart(_ context.Context, _, _ string) error { return nil }

func withOwner(req *http.Request, owner types.Owner) *http.Request {
	return req.WithContext(middleware.WithOwner(req.Context(), owner))
}

func TestCartFetchReturnsTotals(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{lines: []cart.Line{
		{ProductID: "p1", UnitPrice: decimal.NewFromInt(250), Quantity: 2},
		{ProductID: "p2", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
	}}
	handler := CartFetch(svc, nil)

	req := withOwner(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), types.AnonymousOwner("guest-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 3 {
		t.Fatalf("expected count 3 got %d", envelope.Data.Count)
	}
	if !envelope.Data.Subtotal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected subtotal 600 got %s", envelope.Data.Subtotal)
	}
	if svc.gotOwner.ID != "guest-1" {
		t.Fatalf("expected guest owner, got %+v", svc.gotOwner)
	}
}

func TestCartAddDecodesAndStores(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{added: cart.Line{ProductID: "p1", Size: "M", Quantity: 2}}
	handler := CartAdd(svc, nil)

	body := `{"productId":"p1","name":"Summer Shirt","price":"250","size":"M","quantity":2}`
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), types.AuthenticatedOwner("user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotLine.ProductID != "p1" || svc.gotLine.Size != "M" || svc.gotLine.Quantity != 2 {
		t.Fatalf("unexpected line passed to service: %+v", svc.gotLine)
	}
	if !svc.gotLine.UnitPrice.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected unit price: %s", svc.gotLine.UnitPrice)
	}
}

func TestCartAddRejectsMissingProduct(t *testing.T) {
	t.Parallel()

	handler := CartAdd(&stubCartService{}, nil)

	body := `{"name":"Summer Shirt","quantity":1}`
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), types.AnonymousOwner("guest-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddPropagatesServiceError(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{addErr: pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")}
	handler := CartAdd(svc, nil)

	body := `{"productId":"p1","name":"Summer Shirt","quantity":-1}`
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), types.AnonymousOwner("guest-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateQuantitySetsPositiveValues(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	handler := CartUpdateQuantity(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/p1::M", strings.NewReader(`{"quantity":3}`))
	req = withOwner(withURLParam(req, "lineKey", "p1::M"), types.AuthenticatedOwner("user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.updatedKey != "p1::M" || svc.updatedQty != 3 {
		t.Fatalf("expected quantity update for p1::M, got key=%q qty=%d", svc.updatedKey, svc.updatedQty)
	}
	if svc.removedKey != "" {
		t.Fatalf("unexpected removal of %q", svc.removedKey)
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	handler := CartUpdateQuantity(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/p1::M", strings.NewReader(`{"quantity":0}`))
	req = withOwner(withURLParam(req, "lineKey", "p1::M"), types.AuthenticatedOwner("user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.removedKey != "p1::M" {
		t.Fatalf("expected removal of p1::M, got %q", svc.removedKey)
	}
	if svc.updatedKey != "" {
		t.Fatalf("unexpected quantity update for %q", svc.updatedKey)
	}
}

func TestCartFetchNilService(t *testing.T) {
	t.Parallel()

	handler := CartFetch(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
