package wishlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// RemoteStore is the authenticated wishlist: per-user remote subcollection
// keyed by product id.
type RemoteStore interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Toggle(ctx context.Context, userID string, entry Entry) (added bool, err error)
	AddIfAbsent(ctx context.Context, userID string, entry Entry) (added bool, err error)
	Contains(ctx context.Context, userID, productID string) (bool, error)
	Remove(ctx context.Context, userID, productID string) (bool, error)
	Watch(ctx context.Context, userID string, fn func([]Entry)) (stop func(), err error)
}

// GuestEntries is the anonymous wishlist: the guest snapshot slot.
type GuestEntries interface {
	Load(ctx context.Context, guestID string) ([]Entry, error)
	Replace(ctx context.Context, guestID string, entries []Entry) error
	Clear(ctx context.Context, guestID string) error
	Watch(guestID string, fn func()) (cancel func())
}

type activitySink interface {
	PublishActivity(ctx context.Context, event types.ActivityEvent) error
}

// Service is the authoritative read/write path for wishlist membership.
type Service interface {
	GetWishlist(ctx context.Context, owner types.Owner) []Entry
	Toggle(ctx context.Context, owner types.Owner, entry Entry) (added bool, err error)
	Contains(ctx context.Context, owner types.Owner, productID string) bool
	Remove(ctx context.Context, owner types.Owner, productID string) (bool, error)
	Subscribe(ctx context.Context, owner types.Owner, fn func([]Entry)) (stop func(), err error)
	MergeGuestWishlist(ctx context.Context, guestID, userID string) error
}

type service struct {
	remote RemoteStore
	guest  GuestEntries
	events activitySink
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the wishlist service. events may be nil.
func NewService(remote RemoteStore, guest GuestEntries, events activitySink, logg *logger.Logger) (Service, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote wishlist store required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest wishlist store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		remote: remote,
		guest:  guest,
		events: events,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// GetWishlist returns the owner's wishlist, degrading to empty on store error.
func (s *service) GetWishlist(ctx context.Context, owner types.Owner) []Entry {
	if !owner.Valid() {
		return []Entry{}
	}
	var (
		entries []Entry
		err     error
	)
	if owner.Authenticated() {
		entries, err = s.remote.List(ctx, owner.ID)
	} else {
		entries, err = s.guest.Load(ctx, owner.ID)
	}
	if err != nil {
		s.logg.Error(ctx, "wishlist read degraded to empty", err)
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}

// Toggle adds the entry when absent and removes it when present. Two calls
// with the same entry restore the original membership state.
func (s *service) Toggle(ctx context.Context, owner types.Owner, entry Entry) (bool, error) {
	if !owner.Valid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "wishlist owner is required")
	}
	normalized, err := normalizeEntry(entry, s.now())
	if err != nil {
		return false, err
	}

	var added bool
	if owner.Authenticated() {
		added, err = s.remote.Toggle(ctx, owner.ID, normalized)
		if err != nil {
			return false, asRemoteErr(err, "toggling wishlist entry")
		}
	} else {
		added, err = s.guestToggle(ctx, owner.ID, normalized)
		if err != nil {
			return false, err
		}
	}

	eventType := types.ActivityWishlistRemoved
	if added {
		eventType = types.ActivityWishlistAdded
	}
	s.publish(ctx, eventType, owner, normalized.ProductID)
	return added, nil
}

func (s *service) guestToggle(ctx context.Context, guestID string, entry Entry) (bool, error) {
	entries, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return false, err
	}
	kept := entries[:0:0]
	found := false
	for _, existing := range entries {
		if existing.ProductID == entry.ProductID {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		kept = append(kept, entry)
	}
	if err := s.guest.Replace(ctx, guestID, kept); err != nil {
		return false, err
	}
	return !found, nil
}

// Contains reports whether the product is in the owner's wishlist. Degrades
// to false on store error.
func (s *service) Contains(ctx context.Context, owner types.Owner, productID string) bool {
	if !owner.Valid() || productID == "" {
		return false
	}
	if owner.Authenticated() {
		present, err := s.remote.Contains(ctx, owner.ID, productID)
		if err != nil {
			s.logg.Error(ctx, "wishlist membership check degraded to false", err)
			return false
		}
		return present
	}
	entries, err := s.guest.Load(ctx, owner.ID)
	if err != nil {
		s.logg.Error(ctx, "wishlist membership check degraded to false", err)
		return false
	}
	for _, entry := range entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

// Remove deletes the entry; false means it was already absent.
func (s *service) Remove(ctx context.Context, owner types.Owner, productID string) (bool, error) {
	if !owner.Valid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "wishlist owner is required")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var (
		removed bool
		err     error
	)
	if owner.Authenticated() {
		removed, err = s.remote.Remove(ctx, owner.ID, productID)
		if err != nil {
			return false, asRemoteErr(err, "removing wishlist entry")
		}
	} else {
		removed, err = s.guestRemove(ctx, owner.ID, productID)
		if err != nil {
			return false, err
		}
	}

	if removed {
		s.publish(ctx, types.ActivityWishlistRemoved, owner, productID)
	}
	return removed, nil
}

func (s *service) guestRemove(ctx context.Context, guestID, productID string) (bool, error) {
	entries, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return false, err
	}
	kept := entries[:0:0]
	removed := false
	for _, entry := range entries {
		if entry.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return false, nil
	}
	if err := s.guest.Replace(ctx, guestID, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Subscribe pushes the full wishlist to fn on every change.
func (s *service) Subscribe(ctx context.Context, owner types.Owner, fn func([]Entry)) (stop func(), err error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist owner is required")
	}
	if owner.Authenticated() {
		stop, err = s.remote.Watch(ctx, owner.ID, fn)
		if err != nil {
			return nil, asRemoteErr(err, "subscribing to wishlist")
		}
		return stop, nil
	}

	guestID := owner.ID
	return s.guest.Watch(guestID, func() {
		entries, err := s.guest.Load(ctx, guestID)
		if err != nil {
			s.logg.Error(ctx, "guest wishlist re-read failed", err)
			return
		}
		fn(entries)
	}), nil
}

// MergeGuestWishlist copies guest entries the user does not already have into
// the remote wishlist, then clears the guest slot. No-op on an empty slot.
func (s *service) MergeGuestWishlist(ctx context.Context, guestID, userID string) error {
	if guestID == "" || userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest and user ids are required")
	}
	entries, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if _, err := s.remote.AddIfAbsent(ctx, userID, entry); err != nil {
			// Guest slot stays intact so the merge can be retried.
			return asRemoteErr(err, "merging guest wishlist")
		}
	}
	if err := s.guest.Clear(ctx, guestID); err != nil {
		return err
	}

	s.publish(ctx, types.ActivityWishlistMerged, types.AuthenticatedOwner(userID), "")
	return nil
}

func (s *service) publish(ctx context.Context, eventType string, owner types.Owner, productID string) {
	if s.events == nil {
		return
	}
	event := types.ActivityEvent{
		Type:      eventType,
		OwnerKind: string(owner.Kind),
		OwnerID:   owner.ID,
		ProductID: productID,
		At:        s.now(),
	}
	if err := s.events.PublishActivity(ctx, event); err != nil {
		s.logg.Warn(ctx, "activity publish failed")
	}
}

func normalizeEntry(entry Entry, now time.Time) (Entry, error) {
	entry.ProductID = strings.TrimSpace(entry.ProductID)
	if entry.ProductID == "" {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	entry.DisplayName = strings.TrimSpace(entry.DisplayName)
	entry.SchoolName = strings.TrimSpace(entry.SchoolName)
	entry.ImageURL = strings.TrimSpace(entry.ImageURL)
	if entry.UnitPrice.IsNegative() {
		entry.UnitPrice = decimal.Zero
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = now
	}
	return entry, nil
}

// asRemoteErr classifies a store failure, preserving already-coded errors.
func asRemoteErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemote, err, message)
}
