package domain

import "time"

// WebhookEvent records a payment-provider webhook delivery that has been
// fully processed. The unique event id makes duplicate deliveries (which the
// provider performs at least once) observable and lets the webhook handler
// skip replays cheaply.
//
// A row is written only after the fulfillment update succeeded, so a retry
// after a transient store outage can still repair the gift record.
type WebhookEvent struct {
	EventID     string    `json:"event_id"   gorm:"type:varchar(255);primaryKey"`
	EventType   string    `json:"event_type" gorm:"type:varchar(100);not null;index"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }
