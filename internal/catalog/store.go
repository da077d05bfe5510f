// Package catalog provides the gift catalog store: the authoritative holder
// of gift-recipient records and the sole writer of their fulfillment state.
//
// Two implementations exist, selected once at startup instead of branching
// at call sites:
//
//   - LiveStore:   SQLite-backed via GORM, publishes realtime updates.
//   - StaticStore: compiled-in recipient list, no persistence and no
//     subscriptions. Keeps the site serving before a database exists.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
	"github.com/tbourn/go-giftdrive-backend/internal/realtime"
	"github.com/tbourn/go-giftdrive-backend/internal/repo"
)

// ErrNotFound is returned by MarkPurchased when no gift with the requested
// id exists. Read operations signal a missing gift with a nil record
// instead, so callers are not forced into error handling for a routine case.
var ErrNotFound = errors.New("gift not found")

// Store is the catalog contract consumed by the checkout and webhook
// services and by the HTTP layer.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns the full catalog ordered by id.
	List(ctx context.Context) ([]domain.GiftRecipient, error)

	// Get returns the gift with the given id, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.GiftRecipient, error)

	// MarkPurchased applies the one-shot fulfillment transition. It reports
	// whether this call performed the transition; a repeat call for an
	// already-purchased gift is a no-op returning (false, nil), which is what
	// makes duplicate webhook delivery safe. Unknown ids yield ErrNotFound.
	MarkPurchased(ctx context.Context, id string, d domain.PurchaseDetails) (bool, error)

	// Subscribe registers for purchase notifications. The returned channel
	// delivers one GiftUpdate per distinct purchase until cancel is called.
	// A store without live data (StaticStore) returns a nil channel and a
	// no-op cancel; callers must treat nil as "updates unavailable".
	Subscribe() (<-chan domain.GiftUpdate, func())
}

// LiveStore is the database-backed catalog. All mutations go through the
// guarded UPDATE in the repo layer, which is what ultimately enforces the
// at-most-once-sold property; LiveStore adds realtime propagation on top.
type LiveStore struct {
	// DB is the GORM handle used for all catalog reads and writes.
	DB *gorm.DB
	// Hub receives one update per successful fulfillment transition.
	// Optional; a nil hub disables propagation.
	Hub *realtime.Hub
}

// NewLiveStore constructs a LiveStore over db, propagating updates to hub.
func NewLiveStore(db *gorm.DB, hub *realtime.Hub) *LiveStore {
	return &LiveStore{DB: db, Hub: hub}
}

// List returns all gifts ordered by id.
func (s *LiveStore) List(ctx context.Context) ([]domain.GiftRecipient, error) {
	return repo.ListGifts(ctx, s.DB)
}

// Get returns the gift with the given id, or (nil, nil) when absent.
func (s *LiveStore) Get(ctx context.Context, id string) (*domain.GiftRecipient, error) {
	g, err := repo.GetGift(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return g, err
}

// MarkPurchased applies the fulfillment transition and, when this call won
// the transition, publishes exactly one GiftUpdate. Replays publish nothing,
// so subscribers observe one notification per distinct purchase.
func (s *LiveStore) MarkPurchased(ctx context.Context, id string, d domain.PurchaseDetails) (bool, error) {
	updated, err := repo.MarkPurchased(ctx, s.DB, id, d)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	if updated && s.Hub != nil {
		if g, gerr := repo.GetGift(ctx, s.DB, id); gerr == nil {
			s.Hub.Publish(domain.GiftUpdate{
				ID:          g.ID,
				Purchased:   g.Purchased,
				PurchasedAt: g.PurchasedAt,
			})
		}
	}
	return updated, err
}

// Subscribe proxies to the hub. Without a hub it behaves like StaticStore.
func (s *LiveStore) Subscribe() (<-chan domain.GiftUpdate, func()) {
	if s.Hub == nil {
		return nil, func() {}
	}
	return s.Hub.Subscribe()
}
