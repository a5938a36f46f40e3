package inventory

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
)

// batchDoc mirrors a batchInventory document. Each batch carries the
// quantities received for a set of uniform variants.
type batchDoc struct {
	Items []batchItem `firestore:"items"`
}

type batchItem struct {
	UniformID string      `firestore:"uniformId"`
	VariantID string      `firestore:"variantId"`
	Quantity  int64       `firestore:"quantity"`
	Sizes     []batchSize `firestore:"sizes"`
}

type batchSize struct {
	Size     string `firestore:"size"`
	Quantity int64  `firestore:"quantity"`
}

// Repo sums stock across inventory batches.
type Repo struct {
	client *firestore.Client
	col    string
}

func NewRepo(client *db.Client, cfg config.FirebaseConfig) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repo{client: client.DB(), col: cfg.InventoryCollection}, nil
}

// StockTotal scans the inventory batches and sums the quantities matching the
// product, and when given, the variant and size. Batch documents are small
// and few; a scan keeps the matching logic out of Firestore's limited
// array-contains matching.
func (r *Repo) StockTotal(ctx context.Context, productID, variantID, size string) (int64, error) {
	it := r.client.Collection(r.col).Documents(ctx)
	defer it.Stop()

	var total int64
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("scanning inventory batches: %w", err)
		}
		var doc batchDoc
		if err := snap.DataTo(&doc); err != nil {
			return 0, fmt.Errorf("decoding inventory batch %s: %w", snap.Ref.ID, err)
		}
		for _, item := range doc.Items {
			total += itemStock(item, productID, variantID, size)
		}
	}
	return total, nil
}

func itemStock(item batchItem, productID, variantID, size string) int64 {
	if item.UniformID != productID {
		return 0
	}
	if variantID != "" && item.VariantID != variantID {
		return 0
	}
	if size == "" {
		if len(item.Sizes) == 0 {
			return item.Quantity
		}
		var sum int64
		for _, s := range item.Sizes {
			sum += s.Quantity
		}
		return sum
	}
	var sum int64
	for _, s := range item.Sizes {
		if s.Size == size {
			sum += s.Quantity
		}
	}
	return sum
}
