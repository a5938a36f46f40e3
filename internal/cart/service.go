package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

// RemoteStore is the authenticated half of the cart: the per-user remote
// subcollection.
type RemoteStore interface {
	List(ctx context.Context, userID string) ([]Line, error)
	Upsert(ctx context.Context, userID string, line Line) (Line, error)
	SetQuantity(ctx context.Context, userID, key string, quantity int64) (bool, error)
	Delete(ctx context.Context, userID, key string) (bool, error)
	DeleteAll(ctx context.Context, userID string) error
	Watch(ctx context.Context, userID string, fn func([]Line)) (stop func(), err error)
}

// GuestLines is the anonymous half: the guest snapshot slot.
type GuestLines interface {
	Load(ctx context.Context, guestID string) ([]Line, error)
	Replace(ctx context.Context, guestID string, lines []Line) error
	Clear(ctx context.Context, guestID string) error
	Watch(guestID string, fn func()) (cancel func())
}

type activitySink interface {
	PublishActivity(ctx context.Context, event types.ActivityEvent) error
}

// Service is the single authoritative read/write path for cart contents.
// Callers never see whether the backing store is the guest snapshot or the
// remote subcollection; the owner decides.
type Service interface {
	GetCart(ctx context.Context, owner types.Owner) []Line
	AddToCart(ctx context.Context, owner types.Owner, candidate Line) (Line, error)
	RemoveFromCart(ctx context.Context, owner types.Owner, lineKey string) (bool, error)
	UpdateQuantity(ctx context.Context, owner types.Owner, lineKey string, quantity int64) error
	ClearCart(ctx context.Context, owner types.Owner) error
	Contains(ctx context.Context, owner types.Owner, productID string) bool
	Subscribe(ctx context.Context, owner types.Owner, fn func([]Line)) (stop func(), err error)
	MergeGuestCart(ctx context.Context, guestID, userID string) error
}

type service struct {
	remote RemoteStore
	guest  GuestLines
	events activitySink
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the reconciliation service. events may be nil; activity
// publishing is best effort.
func NewService(remote RemoteStore, guest GuestLines, events activitySink, logg *logger.Logger) (Service, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart store required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest cart store required")
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

// GetCart returns the owner's cart. It never fails to the caller: on store
// error it logs and degrades to an empty cart so render paths stay alive.
func (s *service) GetCart(ctx context.Context, owner types.Owner) []Line {
	if !owner.Valid() {
		return []Line{}
	}
	var (
		lines []Line
		err   error
	)
	if owner.Authenticated() {
		lines, err = s.remote.List(ctx, owner.ID)
	} else {
		lines, err = s.guest.Load(ctx, owner.ID)
	}
	if err != nil {
		s.logg.Error(ctx, "cart read degraded to empty", err)
		return []Line{}
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines
}

// AddToCart normalizes the candidate and upserts it: an existing line with
// the same product+size has its quantity incremented, otherwise the line is
// inserted. Returns the stored line.
func (s *service) AddToCart(ctx context.Context, owner types.Owner, candidate Line) (Line, error) {
	if !owner.Valid() {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	line, err := Normalize(candidate, s.now())
	if err != nil {
		return Line{}, err
	}

	var stored Line
	if owner.Authenticated() {
		stored, err = s.remote.Upsert(ctx, owner.ID, line)
		if err != nil {
			return Line{}, asRemoteErr(err, "adding cart line")
		}
	} else {
		stored, err = s.guestUpsert(ctx, owner.ID, line)
		if err != nil {
			return Line{}, err
		}
	}

	s.publish(ctx, types.ActivityCartAdded, owner, stored)
	return stored, nil
}

func (s *service) guestUpsert(ctx context.Context, guestID string, line Line) (Line, error) {
	lines, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return Line{}, err
	}
	stored := line
	found := false
	for i := range lines {
		if lines[i].Key() == line.Key() {
			lines[i].Quantity += line.Quantity
			stored = lines[i]
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, line)
	}
	if err := s.guest.Replace(ctx, guestID, lines); err != nil {
		return Line{}, err
	}
	return stored, nil
}

// RemoveFromCart deletes the line matching lineKey, which may be a composite
// line key or a bare product id. Returns false when nothing matched, so a
// repeat remove is "already gone" rather than an error.
func (s *service) RemoveFromCart(ctx context.Context, owner types.Owner, lineKey string) (bool, error) {
	if !owner.Valid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	lineKey = strings.TrimSpace(lineKey)
	if lineKey == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "line key is required")
	}

	var (
		removed bool
		err     error
	)
	if owner.Authenticated() {
		removed, err = s.remote.Delete(ctx, owner.ID, lineKey)
		if err != nil {
			return false, asRemoteErr(err, "removing cart line")
		}
	} else {
		removed, err = s.guestRemove(ctx, owner.ID, lineKey)
		if err != nil {
			return false, err
		}
	}

	if removed {
		s.publish(ctx, types.ActivityCartRemoved, owner, Line{ProductID: lineKey})
	}
	return removed, nil
}

func (s *service) guestRemove(ctx context.Context, guestID, lineKey string) (bool, error) {
	lines, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return false, err
	}
	kept := lines[:0]
	removed := false
	for _, line := range lines {
		if lineMatchesKey(line, lineKey) {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return false, nil
	}
	if err := s.guest.Replace(ctx, guestID, kept); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateQuantity sets the quantity of the line matching lineKey. Non-positive
// quantities are rejected; callers that want removal call RemoveFromCart.
func (s *service) UpdateQuantity(ctx context.Context, owner types.Owner, lineKey string, quantity int64) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	lineKey = strings.TrimSpace(lineKey)
	if lineKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line key is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var (
		found bool
		err   error
	)
	if owner.Authenticated() {
		found, err = s.remote.SetQuantity(ctx, owner.ID, lineKey, quantity)
		if err != nil {
			return asRemoteErr(err, "updating cart quantity")
		}
	} else {
		found, err = s.guestSetQuantity(ctx, owner.ID, lineKey, quantity)
		if err != nil {
			return err
		}
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	s.publish(ctx, types.ActivityCartUpdated, owner, Line{ProductID: lineKey, Quantity: quantity})
	return nil
}

func (s *service) guestSetQuantity(ctx context.Context, guestID, lineKey string, quantity int64) (bool, error) {
	lines, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return false, err
	}
	found := false
	for i := range lines {
		if lineMatchesKey(lines[i], lineKey) {
			lines[i].Quantity = quantity
			found = true
		}
	}
	if !found {
		return false, nil
	}
	if err := s.guest.Replace(ctx, guestID, lines); err != nil {
		return false, err
	}
	return true, nil
}

// ClearCart empties the owner's cart. The remote clear is a single batch
// commit, so a failure leaves the store either fully cleared or untouched,
// never partially cleared under a rolled-back UI.
func (s *service) ClearCart(ctx context.Context, owner types.Owner) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if owner.Authenticated() {
		if err := s.remote.DeleteAll(ctx, owner.ID); err != nil {
			return asRemoteErr(err, "clearing cart")
		}
	} else {
		if err := s.guest.Clear(ctx, owner.ID); err != nil {
			return err
		}
	}
	s.publish(ctx, types.ActivityCartCleared, owner, Line{})
	return nil
}

// Contains reports whether any line in the owner's cart references productID.
func (s *service) Contains(ctx context.Context, owner types.Owner, productID string) bool {
	for _, line := range s.GetCart(ctx, owner) {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// Subscribe pushes the full cart to fn on every change until the returned
// stop func is called. Authenticated carts ride the remote push subscription;
// guest carts re-read on snapshot change notices.
func (s *service) Subscribe(ctx context.Context, owner types.Owner, fn func([]Line)) (stop func(), err error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if owner.Authenticated() {
		stop, err = s.remote.Watch(ctx, owner.ID, fn)
		if err != nil {
			return nil, asRemoteErr(err, "subscribing to cart")
		}
		return stop, nil
	}

	guestID := owner.ID
	return s.guest.Watch(guestID, func() {
		lines, err := s.guest.Load(ctx, guestID)
		if err != nil {
			s.logg.Error(ctx, "guest cart re-read failed", err)
			return
		}
		fn(lines)
	}), nil
}

// MergeGuestCart folds the guest's cart into the user's remote cart, summing
// quantities for shared product+size pairs, then clears the guest slot. A
// no-op when the guest cart is empty. Callers await it before trusting
// post-login cart reads.
func (s *service) MergeGuestCart(ctx context.Context, guestID, userID string) error {
	if guestID == "" || userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest and user ids are required")
	}
	lines, err := s.guest.Load(ctx, guestID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	for _, line := range lines {
		line.RemoteDocID = ""
		if _, err := s.remote.Upsert(ctx, userID, line); err != nil {
			// Guest slot stays intact so the merge can be retried.
			return asRemoteErr(err, "merging guest cart")
		}
	}
	if err := s.guest.Clear(ctx, guestID); err != nil {
		return err
	}

	s.publish(ctx, types.ActivityCartMerged, types.AuthenticatedOwner(userID), Line{Quantity: ItemCount(lines)})
	return nil
}

func (s *service) publish(ctx context.Context, eventType string, owner types.Owner, line Line) {
	if s.events == nil {
		return
	}
	event := types.ActivityEvent{
		Type:      eventType,
		OwnerKind: string(owner.Kind),
		OwnerID:   owner.ID,
		ProductID: line.ProductID,
		Size:      line.Size,
		Quantity:  line.Quantity,
		At:        s.now(),
	}
	if err := s.events.PublishActivity(ctx, event); err != nil {
		s.logg.Warn(ctx, "activity publish failed")
	}
}

func lineMatchesKey(line Line, key string) bool {
	return line.Key() == key || line.ProductID == key
}

// asRemoteErr classifies a store failure, preserving already-coded errors.
func asRemoteErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemote, err, message)
}
