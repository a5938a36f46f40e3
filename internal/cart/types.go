package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one product+size entry in a cart. The same shape is stored in the
// guest snapshot slot and in the remote per-user subcollection; RemoteDocID
// is populated only once the line has been persisted remotely.
type Line struct {
	ProductID   string          `json:"productId"`
	DisplayName string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	Size        string          `json:"size,omitempty"`
	Quantity    int64           `json:"quantity"`
	ImageURL    string          `json:"image,omitempty"`
	SchoolName  string          `json:"school,omitempty"`
	AddedAt     time.Time       `json:"addedAt"`
	RemoteDocID string          `json:"remoteDocId,omitempty"`
}

// Key returns the deterministic identity of the line within a cart. Upserts
// are keyed on it, so two adds for the same product+size land on one document.
func (l Line) Key() string {
	return LineKey(l.ProductID, l.Size)
}

// LineKey builds the composite cart key for a product+size pair.
func LineKey(productID, size string) string {
	productID = strings.TrimSpace(productID)
	size = strings.TrimSpace(size)
	if size == "" {
		return productID
	}
	return productID + "::" + size
}

// LineTotal is the price contribution of the line.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Subtotal sums the line totals of a cart.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ItemCount sums the quantities of a cart.
func ItemCount(lines []Line) int64 {
	var count int64
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
