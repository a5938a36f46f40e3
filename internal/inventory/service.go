package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

// DefaultStock is reported when no batch covers a product. The storefront
// has no inventory engine; missing data means the item is assumed orderable.
const DefaultStock int64 = 10

// Store sums stock across inventory batches.
type Store interface {
	StockTotal(ctx context.Context, productID, variantID, size string) (int64, error)
}

// Service answers stock lookups. It never fails a caller over inventory
// data: a missing product, an empty scan, or a backend error all resolve to
// DefaultStock.
type Service interface {
	StockByVariant(ctx context.Context, productID, variantID, size string) int64
}

type service struct {
	store Store
	logg  *logger.Logger
}

func NewService(store Store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, logg: logg}, nil
}

func (s *service) StockByVariant(ctx context.Context, productID, variantID, size string) int64 {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return DefaultStock
	}
	total, err := s.store.StockTotal(ctx, productID, strings.TrimSpace(variantID), strings.TrimSpace(size))
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("inventory scan failed for %s, using default stock: %v", productID, err))
		return DefaultStock
	}
	if total <= 0 {
		return DefaultStock
	}
	return total
}
