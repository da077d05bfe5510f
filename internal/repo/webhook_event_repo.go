// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the WebhookEvent
// model used to detect duplicate provider deliveries.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

// ErrDuplicateEvent indicates that a webhook event with this provider id has
// already been processed.
var ErrDuplicateEvent = errors.New("webhook event already processed")

// SeenWebhookEvent reports whether the provider event id has already been
// recorded as processed.
func SeenWebhookEvent(ctx context.Context, db *gorm.DB, eventID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&n).Error
	return n > 0, err
}

// RecordWebhookEvent marks a provider event as processed. It returns
// ErrDuplicateEvent on a primary-key collision so concurrent deliveries of
// the same event resolve deterministically.
func RecordWebhookEvent(ctx context.Context, db *gorm.DB, eventID, eventType string) error {
	rec := &domain.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed") {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}
