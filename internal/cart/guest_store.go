package cart

import (
	"context"

	"github.com/monisha-uniforms/storefront-backend/internal/snapshot"
)

// GuestStore binds the guest snapshot layer to the cart slot. Mutations are
// whole-collection read/replace; there is no partial update primitive, and
// concurrent guest sessions are last-write-wins with an advisory notice.
type GuestStore struct {
	snaps *snapshot.Store
}

// NewGuestStore wraps the snapshot store for cart access.
func NewGuestStore(snaps *snapshot.Store) *GuestStore {
	return &GuestStore{snaps: snaps}
}

// Load reads the guest's cart. A missing slot is an empty cart.
func (g *GuestStore) Load(ctx context.Context, guestID string) ([]Line, error) {
	var lines []Line
	if err := g.snaps.Load(ctx, guestID, snapshot.SlotCart, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Replace overwrites the guest's cart with the full line set.
func (g *GuestStore) Replace(ctx context.Context, guestID string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	return g.snaps.Replace(ctx, guestID, snapshot.SlotCart, lines)
}

// Clear drops the guest's cart slot.
func (g *GuestStore) Clear(ctx context.Context, guestID string) error {
	return g.snaps.Clear(ctx, guestID, snapshot.SlotCart)
}

// Watch fires fn on every cart slot change for the guest.
func (g *GuestStore) Watch(guestID string, fn func()) (cancel func()) {
	return g.snaps.Watch(guestID, func(slot string) {
		if slot == snapshot.SlotCart {
			fn()
		}
	})
}
