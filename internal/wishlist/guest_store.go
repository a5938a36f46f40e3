package wishlist

import (
	"context"

	"github.com/monisha-uniforms/storefront-backend/internal/snapshot"
)

// GuestStore binds the guest snapshot layer to the wishlist slot.
type GuestStore struct {
	snaps *snapshot.Store
}

// NewGuestStore wraps the snapshot store for wishlist access.
func NewGuestStore(snaps *snapshot.Store) *GuestStore {
	return &GuestStore{snaps: snaps}
}

// Load reads the guest's wishlist. A missing slot is an empty wishlist.
func (g *GuestStore) Load(ctx context.Context, guestID string) ([]Entry, error) {
	var entries []Entry
	if err := g.snaps.Load(ctx, guestID, snapshot.SlotWishlist, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Replace overwrites the guest's wishlist with the full entry set.
func (g *GuestStore) Replace(ctx context.Context, guestID string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return g.snaps.Replace(ctx, guestID, snapshot.SlotWishlist, entries)
}

// Clear drops the guest's wishlist slot.
func (g *GuestStore) Clear(ctx context.Context, guestID string) error {
	return g.snaps.Clear(ctx, guestID, snapshot.SlotWishlist)
}

// Watch fires fn on every wishlist slot change for the guest.
func (g *GuestStore) Watch(guestID string, fn func()) (cancel func()) {
	return g.snaps.Watch(guestID, func(slot string) {
		if slot == snapshot.SlotWishlist {
			fn()
		}
	})
}
