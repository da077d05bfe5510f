package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

// StaticStore serves the compiled-in recipient list when no database is
// configured. Fulfillment updates mutate the in-memory copy with the same
// one-shot semantics as the live store, but they are lost on restart and
// there is no realtime channel: Subscribe returns a nil channel.
type StaticStore struct {
	mu    sync.RWMutex
	gifts map[string]*domain.GiftRecipient
}

// NewStaticStore builds a StaticStore from the built-in seed list.
func NewStaticStore() *StaticStore {
	s := &StaticStore{gifts: make(map[string]*domain.GiftRecipient)}
	for _, g := range domain.SeedGiftRecipients() {
		g := g
		s.gifts[g.ID] = &g
	}
	return s
}

// List returns a copy of the catalog ordered by id.
func (s *StaticStore) List(_ context.Context) ([]domain.GiftRecipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GiftRecipient, 0, len(s.gifts))
	for _, g := range s.gifts {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a copy of the gift with the given id, or (nil, nil) when
// absent.
func (s *StaticStore) Get(_ context.Context, id string) (*domain.GiftRecipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gifts[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// MarkPurchased applies the fulfillment transition in memory. Semantics
// mirror LiveStore: at most one transition per gift, replays are no-ops,
// unknown ids yield ErrNotFound.
func (s *StaticStore) MarkPurchased(_ context.Context, id string, d domain.PurchaseDetails) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gifts[id]
	if !ok {
		return false, ErrNotFound
	}
	if g.Purchased {
		return false, nil
	}
	now := time.Now().UTC()
	g.Purchased = true
	g.PurchasedAt = &now
	g.StripeSessionID = &d.SessionID
	if d.DonorEmail != "" {
		email := d.DonorEmail
		g.DonorEmail = &email
	}
	amount := d.AmountPaid
	g.AmountPaid = &amount
	fee := d.FeeCovered
	g.FeeCovered = &fee
	return true, nil
}

// Subscribe reports that live updates are unavailable. Callers receive a nil
// channel and a no-op cancel, matching the Store contract for non-live data.
func (s *StaticStore) Subscribe() (<-chan domain.GiftUpdate, func()) {
	return nil, func() {}
}
