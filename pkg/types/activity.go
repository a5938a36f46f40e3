package types

import "time"

// Activity event types published on the storefront activity topic.
const (
	ActivityCartAdded       = "cart.added"
	ActivityCartRemoved     = "cart.removed"
	ActivityCartUpdated     = "cart.updated"
	ActivityCartCleared     = "cart.cleared"
	ActivityCartMerged      = "cart.merged"
	ActivityWishlistAdded   = "wishlist.added"
	ActivityWishlistRemoved = "wishlist.removed"
	ActivityWishlistMerged  = "wishlist.merged"
)

// ActivityEvent is a best-effort storefront activity record.
type ActivityEvent struct {
	Type      string    `json:"type"`
	OwnerKind string    `json:"ownerKind"`
	OwnerID   string    `json:"ownerId"`
	ProductID string    `json:"productId,omitempty"`
	Size      string    `json:"size,omitempty"`
	Quantity  int64     `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}
