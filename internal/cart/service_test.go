package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, remote RemoteStore, guest GuestLines, events activitySink) Service {
	t.Helper()
	svc, err := NewService(remote, guest, events, testLogger())
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestAddToCartSumsQuantitiesForSameProductAndSize(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", Quantity: 1}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	lines := svc.GetCart(ctx, owner)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected summed quantity 3, got %d", lines[0].Quantity)
	}
}

func TestAddToCartAuthenticatedUpserts(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	svc := newTestService(t, remote, newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AuthenticatedOwner("user-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	stored, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", Quantity: 1})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if stored.Quantity != 3 {
		t.Fatalf("expected upsert to sum to 3, got %d", stored.Quantity)
	}

	// A different size is a separate line.
	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "L", Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if lines := svc.GetCart(ctx, owner); len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	removed, err := svc.RemoveFromCart(ctx, owner, "p1::M")
	if err != nil || !removed {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}

	removed, err = svc.RemoveFromCart(ctx, owner, "p1::M")
	if err != nil {
		t.Fatalf("second remove errored: %v", err)
	}
	if removed {
		t.Fatal("second remove should report not found")
	}
	if lines := svc.GetCart(ctx, owner); len(lines) != 0 {
		t.Fatalf("cart should stay empty, got %d lines", len(lines))
	}
}

func TestRemoveFromCartResolvesBareProductID(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	removed, err := svc.RemoveFromCart(ctx, owner, "p1")
	if err != nil || !removed {
		t.Fatalf("expected removal by product id, got removed=%v err=%v", removed, err)
	}
}

func TestUpdateQuantityRejectsNonPositive(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := svc.UpdateQuantity(ctx, owner, "p1::M", 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	lines := svc.GetCart(ctx, owner)
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("line must be unchanged after rejected update, got %+v", lines)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)

	err := svc.UpdateQuantity(context.Background(), types.AuthenticatedOwner("user-1"), "p9::S", 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetCartDegradesToEmptyOnStoreError(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	remote.err = errors.New("backend down")
	svc := newTestService(t, remote, newMemGuest(), nil)

	lines := svc.GetCart(context.Background(), types.AuthenticatedOwner("user-1"))
	if lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil cart, got %#v", lines)
	}
}

func TestAddToCartReportsRemoteUnavailable(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	remote.err = errors.New("backend down")
	svc := newTestService(t, remote, newMemGuest(), nil)

	_, err := svc.AddToCart(context.Background(), types.AuthenticatedOwner("user-1"), Line{ProductID: "p2", Size: "L"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRemote {
		t.Fatalf("expected remote-unavailable error, got %v", err)
	}
}

func TestClearCartEmptiesOwnerCart(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()

	for _, owner := range []types.Owner{types.AnonymousOwner("guest-1"), types.AuthenticatedOwner("user-1")} {
		if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M"}); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if err := svc.ClearCart(ctx, owner); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if lines := svc.GetCart(ctx, owner); len(lines) != 0 {
			t.Fatalf("expected empty cart for %s owner, got %d lines", owner.Kind, len(lines))
		}
	}
}

func TestContains(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if svc.Contains(ctx, owner, "p1") {
		t.Fatal("empty cart should not contain p1")
	}
	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !svc.Contains(ctx, owner, "p1") {
		t.Fatal("expected cart to contain p1")
	}
}

func TestMergeGuestCartNoOpWhenEmpty(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	svc := newTestService(t, remote, newMemGuest(), nil)

	if err := svc.MergeGuestCart(context.Background(), "guest-1", "user-1"); err != nil {
		t.Fatalf("merge of empty guest cart must be a no-op: %v", err)
	}
	if remote.upserts != 0 {
		t.Fatalf("expected no remote writes, got %d", remote.upserts)
	}
}

func TestMergeGuestCartSumsSharedLines(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	guest := newMemGuest()
	svc := newTestService(t, remote, guest, nil)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, types.AuthenticatedOwner("user-1"), Line{ProductID: "p1", Size: "M", Quantity: 1}); err != nil {
		t.Fatalf("seeding remote cart failed: %v", err)
	}
	if _, err := svc.AddToCart(ctx, types.AnonymousOwner("guest-1"), Line{ProductID: "p1", Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("seeding guest cart failed: %v", err)
	}
	if _, err := svc.AddToCart(ctx, types.AnonymousOwner("guest-1"), Line{ProductID: "p2", Size: "S", Quantity: 1}); err != nil {
		t.Fatalf("seeding guest cart failed: %v", err)
	}

	if err := svc.MergeGuestCart(ctx, "guest-1", "user-1"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	lines := svc.GetCart(ctx, types.AuthenticatedOwner("user-1"))
	byKey := map[string]Line{}
	for _, line := range lines {
		byKey[line.Key()] = line
	}
	if byKey["p1::M"].Quantity != 3 {
		t.Fatalf("expected summed quantity 3 for p1::M, got %d", byKey["p1::M"].Quantity)
	}
	if byKey["p2::S"].Quantity != 1 {
		t.Fatalf("expected p2::S carried over, got %+v", byKey)
	}
	if guestLines := svc.GetCart(ctx, types.AnonymousOwner("guest-1")); len(guestLines) != 0 {
		t.Fatalf("guest cart must be cleared after merge, got %d lines", len(guestLines))
	}
}

func TestMergeGuestCartKeepsGuestSlotOnRemoteFailure(t *testing.T) {
	t.Parallel()
	remote := newStubRemote()
	guest := newMemGuest()
	svc := newTestService(t, remote, guest, nil)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, types.AnonymousOwner("guest-1"), Line{ProductID: "p1", Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("seeding guest cart failed: %v", err)
	}

	remote.err = errors.New("backend down")
	err := svc.MergeGuestCart(ctx, "guest-1", "user-1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRemote {
		t.Fatalf("expected remote-unavailable error, got %v", err)
	}

	remote.err = nil
	if lines := svc.GetCart(ctx, types.AnonymousOwner("guest-1")); len(lines) != 1 {
		t.Fatalf("guest slot must survive a failed merge, got %d lines", len(lines))
	}
}

func TestMutationsPublishActivity(t *testing.T) {
	t.Parallel()
	sink := &captureSink{}
	svc := newTestService(t, newStubRemote(), newMemGuest(), sink)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M", UnitPrice: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.ClearCart(ctx, owner); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected two events, got %d", len(sink.events))
	}
	if sink.events[0].Type != types.ActivityCartAdded || sink.events[1].Type != types.ActivityCartCleared {
		t.Fatalf("unexpected event sequence: %+v", sink.events)
	}
}

func TestGuestSubscribeRereadsOnChange(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, newStubRemote(), newMemGuest(), nil)
	ctx := context.Background()
	owner := types.AnonymousOwner("guest-1")

	var mu sync.Mutex
	var got [][]Line
	stop, err := svc.Subscribe(ctx, owner, func(lines []Line) {
		mu.Lock()
		got = append(got, lines)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer stop()

	if _, err := svc.AddToCart(ctx, owner, Line{ProductID: "p1", Size: "M"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatal("expected subscriber to receive the updated cart")
	}
	last := got[len(got)-1]
	if len(last) != 1 || last[0].ProductID != "p1" {
		t.Fatalf("unexpected pushed cart: %+v", last)
	}
}

// ---- stubs ----

type stubRemote struct {
	mu      sync.Mutex
	carts   map[string]map[string]Line
	err     error
	upserts int
}

func newStubRemote() *stubRemote {
	return &stubRemote{carts: make(map[string]map[string]Line)}
}

func (s *stubRemote) List(ctx context.Context, userID string) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var lines []Line
	for _, line := range s.carts[userID] {
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *stubRemote) Upsert(ctx context.Context, userID string, line Line) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Line{}, s.err
	}
	s.upserts++
	if s.carts[userID] == nil {
		s.carts[userID] = make(map[string]Line)
	}
	key := line.Key()
	if existing, ok := s.carts[userID][key]; ok {
		existing.Quantity += line.Quantity
		s.carts[userID][key] = existing
		return existing, nil
	}
	line.RemoteDocID = key
	s.carts[userID][key] = line
	return line, nil
}

func (s *stubRemote) SetQuantity(ctx context.Context, userID, key string, quantity int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	found := false
	for k, line := range s.carts[userID] {
		if k == key || line.ProductID == key {
			line.Quantity = quantity
			s.carts[userID][k] = line
			found = true
		}
	}
	return found, nil
}

func (s *stubRemote) Delete(ctx context.Context, userID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	removed := false
	for k, line := range s.carts[userID] {
		if k == key || line.ProductID == key {
			delete(s.carts[userID], k)
			removed = true
		}
	}
	return removed, nil
}

func (s *stubRemote) DeleteAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.carts, userID)
	return nil
}

func (s *stubRemote) Watch(ctx context.Context, userID string, fn func([]Line)) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	return func() {}, nil
}

type memGuest struct {
	mu       sync.Mutex
	slots    map[string][]Line
	watchers map[string][]func()
}

func newMemGuest() *memGuest {
	return &memGuest{
		slots:    make(map[string][]Line),
		watchers: make(map[string][]func()),
	}
}

func (m *memGuest) Load(ctx context.Context, guestID string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.slots[guestID]), nil
}

func (m *memGuest) Replace(ctx context.Context, guestID string, lines []Line) error {
	m.mu.Lock()
	m.slots[guestID] = cloneLines(lines)
	fns := append([]func(){}, m.watchers[guestID]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *memGuest) Clear(ctx context.Context, guestID string) error {
	m.mu.Lock()
	delete(m.slots, guestID)
	fns := append([]func(){}, m.watchers[guestID]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *memGuest) Watch(guestID string, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers[guestID] = append(m.watchers[guestID], fn)
	idx := len(m.watchers[guestID]) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.watchers[guestID]) {
			m.watchers[guestID][idx] = func() {}
		}
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []types.ActivityEvent
}

func (c *captureSink) PublishActivity(ctx context.Context, event types.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}
