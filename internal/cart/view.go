package cart

import (
	"context"
	"sync"
	"time"

	"github.com/monisha-uniforms/storefront-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// View is a per-consumer cart state container. Mutations apply optimistically:
// observers see the expected post-mutation state immediately, and on store
// failure the view rolls back to its pre-call snapshot before the error is
// returned. Stream consumers (badge counts, cart pages) observe it instead of
// polling the service.
type View struct {
	svc   Service
	owner types.Owner

	mu    sync.RWMutex
	lines []Line
	subs  map[int]func([]Line)
	next  int
}

// NewView builds a view over one owner's cart. Call Refresh or Start to seed it.
func NewView(svc Service, owner types.Owner) *View {
	return &View{
		svc:   svc,
		owner: owner,
		subs:  make(map[int]func([]Line)),
	}
}

// Lines returns a copy of the current view state.
func (v *View) Lines() []Line {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneLines(v.lines)
}

// Subtotal is the price total of the current view state.
func (v *View) Subtotal() decimal.Decimal {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Subtotal(v.lines)
}

// Count is the quantity total of the current view state, e.g. a navbar badge.
func (v *View) Count() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ItemCount(v.lines)
}

// Observe registers fn to run on every state change. The returned handle
// unregisters it.
func (v *View) Observe(fn func([]Line)) (cancel func()) {
	v.mu.Lock()
	v.next++
	token := v.next
	v.subs[token] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.subs, token)
		v.mu.Unlock()
	}
}

// Refresh pulls the authoritative cart into the view.
func (v *View) Refresh(ctx context.Context) {
	v.set(v.svc.GetCart(ctx, v.owner))
}

// Start seeds the view and keeps it updated from the service's push
// subscription until the returned stop func is called.
func (v *View) Start(ctx context.Context) (stop func(), err error) {
	stop, err = v.svc.Subscribe(ctx, v.owner, v.set)
	if err != nil {
		return nil, err
	}
	v.Refresh(ctx)
	return stop, nil
}

// Add applies the candidate optimistically, then persists it. On failure the
// view reverts to its prior state and the error is returned.
func (v *View) Add(ctx context.Context, candidate Line) error {
	line, err := Normalize(candidate, time.Now())
	if err != nil {
		return err
	}

	prior := v.Lines()
	next := cloneLines(prior)
	found := false
	for i := range next {
		if next[i].Key() == line.Key() {
			next[i].Quantity += line.Quantity
			found = true
			break
		}
	}
	if !found {
		next = append(next, line)
	}
	v.set(next)

	if _, err := v.svc.AddToCart(ctx, v.owner, candidate); err != nil {
		v.set(prior)
		return err
	}
	return nil
}

// Remove drops the matching line optimistically, then persists the removal.
func (v *View) Remove(ctx context.Context, lineKey string) (bool, error) {
	prior := v.Lines()
	next := prior[:0:0]
	for _, line := range prior {
		if lineMatchesKey(line, lineKey) {
			continue
		}
		next = append(next, line)
	}
	v.set(next)

	removed, err := v.svc.RemoveFromCart(ctx, v.owner, lineKey)
	if err != nil {
		v.set(prior)
		return false, err
	}
	if !removed {
		v.set(prior)
	}
	return removed, nil
}

// SetQuantity updates the matching line optimistically, then persists it.
func (v *View) SetQuantity(ctx context.Context, lineKey string, quantity int64) error {
	prior := v.Lines()
	next := cloneLines(prior)
	for i := range next {
		if lineMatchesKey(next[i], lineKey) {
			next[i].Quantity = quantity
		}
	}
	v.set(next)

	if err := v.svc.UpdateQuantity(ctx, v.owner, lineKey, quantity); err != nil {
		v.set(prior)
		return err
	}
	return nil
}

// Clear empties the view optimistically, then persists the clear.
func (v *View) Clear(ctx context.Context) error {
	prior := v.Lines()
	v.set(nil)

	if err := v.svc.ClearCart(ctx, v.owner); err != nil {
		v.set(prior)
		return err
	}
	return nil
}

func (v *View) set(lines []Line) {
	if lines == nil {
		lines = []Line{}
	}
	v.mu.Lock()
	v.lines = lines
	fns := make([]func([]Line), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	snapshot := cloneLines(lines)
	for _, fn := range fns {
		fn(snapshot)
	}
}
