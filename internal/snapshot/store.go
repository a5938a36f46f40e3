package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

// Slot names for the two collections a guest owns.
const (
	SlotCart     = "cart"
	SlotWishlist = "wishlist"
)

// Backend is the keyed persistence surface the store writes through.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel, payload string) error
	SnapshotKey(ownerID, slot string) string
	ChannelKey(ownerID string) string
}

// Store holds guest cart/wishlist snapshots as whole-collection JSON values.
// Every mutation replaces the full slot; concurrent writers are last-write-wins.
// Writes additionally broadcast an advisory change notice so other watchers
// (in-process observers and, via pub/sub, other instances) can re-read.
type Store struct {
	backend  Backend
	ttl      time.Duration
	logg     *logger.Logger
	instance string

	mu        sync.Mutex
	nextToken int
	watchers  map[string]map[int]func(slot string)
}

// New builds a snapshot store over the given backend. Slots expire after ttl
// of inactivity; ttl <= 0 keeps them forever.
func New(backend Backend, ttl time.Duration, logg *logger.Logger) *Store {
	return &Store{
		backend:  backend,
		ttl:      ttl,
		logg:     logg,
		instance: uuid.NewString(),
		watchers: make(map[string]map[int]func(slot string)),
	}
}

// Load reads a slot into out. A missing slot leaves out untouched so callers
// see the zero (empty) collection.
func (s *Store) Load(ctx context.Context, ownerID, slot string, out any) error {
	payload, err := s.backend.Get(ctx, s.backend.SnapshotKey(ownerID, slot))
	if err != nil {
		if stderrors.Is(err, goredis.Nil) {
			return nil
		}
		return errors.Wrap(errors.CodeRemote, err, "reading snapshot slot")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "decoding snapshot slot")
	}
	return nil
}

// Replace overwrites a slot with the full collection and notifies watchers.
func (s *Store) Replace(ctx context.Context, ownerID, slot string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "encoding snapshot slot")
	}
	key := s.backend.SnapshotKey(ownerID, slot)
	if err := s.backend.Set(ctx, key, string(payload), s.ttl); err != nil {
		return errors.Wrap(errors.CodeRemote, err, "writing snapshot slot")
	}
	s.broadcast(ctx, ownerID, slot)
	return nil
}

// Clear drops the named slots for an owner. Clearing an absent slot is a no-op.
func (s *Store) Clear(ctx context.Context, ownerID string, slots ...string) error {
	if len(slots) == 0 {
		slots = []string{SlotCart, SlotWishlist}
	}
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, s.backend.SnapshotKey(ownerID, slot))
	}
	if err := s.backend.Del(ctx, keys...); err != nil {
		return errors.Wrap(errors.CodeRemote, err, "clearing snapshot slots")
	}
	for _, slot := range slots {
		s.broadcast(ctx, ownerID, slot)
	}
	return nil
}

// Watch registers a callback fired when one of the owner's slots changes.
// The returned handle unregisters the callback; it is safe to call twice.
func (s *Store) Watch(ownerID string, fn func(slot string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextToken++
	token := s.nextToken
	if s.watchers[ownerID] == nil {
		s.watchers[ownerID] = make(map[int]func(slot string))
	}
	s.watchers[ownerID][token] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[ownerID], token)
		if len(s.watchers[ownerID]) == 0 {
			delete(s.watchers, ownerID)
		}
	}
}

// Relay feeds pub/sub change notices from other instances into the local
// watcher registry. Notices this instance published itself are skipped, as
// broadcast already notified local watchers directly. Returns when the
// channel closes or ctx is done.
func (s *Store) Relay(ctx context.Context, msgs <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ownerID := ownerFromChannel(msg.Channel)
			if ownerID == "" {
				continue
			}
			origin, slot := splitNotice(msg.Payload)
			if origin == s.instance {
				continue
			}
			s.notify(ownerID, slot)
		}
	}
}

func (s *Store) broadcast(ctx context.Context, ownerID, slot string) {
	s.notify(ownerID, slot)
	notice := s.instance + "|" + slot
	if err := s.backend.Publish(ctx, s.backend.ChannelKey(ownerID), notice); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "snapshot change broadcast failed")
	}
}

// splitNotice unpacks an "<instance>|<slot>" change notice. A payload without
// the separator reads as an anonymous notice, which is always relayed.
func splitNotice(payload string) (origin, slot string) {
	idx := strings.Index(payload, "|")
	if idx < 0 {
		return "", payload
	}
	return payload[:idx], payload[idx+1:]
}

func (s *Store) notify(ownerID, slot string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.watchers[ownerID]))
	for _, fn := range s.watchers[ownerID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(slot)
	}
}

// ownerFromChannel extracts the owner id from a change channel name,
// e.g. "sf:events:guest-1" -> "guest-1".
func ownerFromChannel(channel string) string {
	idx := strings.LastIndex(channel, ":")
	if idx < 0 || idx == len(channel)-1 {
		return ""
	}
	return channel[idx+1:]
}
