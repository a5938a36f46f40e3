package inventory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

type stubStore struct {
	total int64
	err   error
}

func (s *stubStore) StockTotal(context.Context, string, string, string) (int64, error) {
	return s.total, s.err
}

func newTestService(t *testing.T, store Store) Service {
	t.Helper()
	svc, err := NewService(store, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestStockByVariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		productID string
		store     stubStore
		want      int64
	}{
		{name: "summed total", productID: "p1", store: stubStore{total: 42}, want: 42},
		{name: "empty scan falls back", productID: "p1", store: stubStore{total: 0}, want: DefaultStock},
		{name: "scan error falls back", productID: "p1", store: stubStore{err: errors.New("boom")}, want: DefaultStock},
		{name: "blank product falls back", productID: "  ", store: stubStore{total: 42}, want: DefaultStock},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t, &tc.store)
			if got := svc.StockByVariant(context.Background(), tc.productID, "", ""); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestItemStockMatching(t *testing.T) {
	t.Parallel()

	item := batchItem{
		UniformID: "p1",
		VariantID: "v1",
		Quantity:  7,
		Sizes: []batchSize{
			{Size: "S", Quantity: 3},
			{Size: "M", Quantity: 5},
		},
	}

	if got := itemStock(item, "p2", "", ""); got != 0 {
		t.Fatalf("wrong product matched: %d", got)
	}
	if got := itemStock(item, "p1", "v2", ""); got != 0 {
		t.Fatalf("wrong variant matched: %d", got)
	}
	if got := itemStock(item, "p1", "v1", "M"); got != 5 {
		t.Fatalf("size match: got %d, want 5", got)
	}
	if got := itemStock(item, "p1", "", ""); got != 8 {
		t.Fatalf("all sizes: got %d, want 8", got)
	}
	if got := itemStock(batchItem{UniformID: "p1", Quantity: 7}, "p1", "", ""); got != 7 {
		t.Fatalf("sizeless item: got %d, want 7", got)
	}
}
