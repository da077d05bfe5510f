// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GiftRecipient model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When a gift is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the catalog layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListGifts returns the full catalog ordered by id. It returns an empty
// slice when the table is empty. On DB error, it returns the error.
func ListGifts(ctx context.Context, db *gorm.DB) ([]domain.GiftRecipient, error) {
	var out []domain.GiftRecipient
	err := db.WithContext(ctx).
		Order("id").
		Find(&out).Error
	return out, err
}

// GetGift fetches a single gift by id, or ErrNotFound if missing.
func GetGift(ctx context.Context, db *gorm.DB, id string) (*domain.GiftRecipient, error) {
	var g domain.GiftRecipient
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// MarkPurchased records a verified payment against a gift. The update is a
// single guarded statement with `purchased = false` in the WHERE clause, so
// the false→true transition happens at most once no matter how many webhook
// deliveries race for it; the fulfillment fields ride along in the same
// statement.
//
// Return values:
//   - (true, nil):  this call performed the transition.
//   - (false, nil): the gift was already purchased; nothing was written.
//   - (false, ErrNotFound): no gift with this id exists.
//   - (false, err): DB failure.
func MarkPurchased(ctx context.Context, db *gorm.DB, id string, d domain.PurchaseDetails) (bool, error) {
	now := time.Now().UTC()

	updates := map[string]any{
		"purchased":         true,
		"purchased_at":      now,
		"stripe_session_id": d.SessionID,
		"amount_paid":       d.AmountPaid,
		"fee_covered":       d.FeeCovered,
	}
	if d.DonorEmail != "" {
		updates["donor_email"] = d.DonorEmail
	}

	res := db.WithContext(ctx).
		Model(&domain.GiftRecipient{}).
		Where("id = ? AND purchased = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// No row changed: either the gift is already purchased (idempotent no-op)
	// or the id is unknown.
	var n int64
	if err := db.WithContext(ctx).
		Model(&domain.GiftRecipient{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}
