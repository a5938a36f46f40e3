package wishlist

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one wishlisted product. At most one entry exists per product and
// owner; the remote document id is the product id, which is what makes the
// toggle a single-document operation.
type Entry struct {
	ProductID   string          `json:"productId"`
	DisplayName string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image,omitempty"`
	SchoolName  string          `json:"school,omitempty"`
	AddedAt     time.Time       `json:"addedAt"`
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
