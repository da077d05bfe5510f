// Package domain defines the persistence models for the gift drive. These
// types are mapped with GORM and form the core data layer of the backend.
package domain

import "time"

// GiftRecipient represents one sponsorable gift on the drive. Records are
// seeded at deploy time and are never created or deleted at runtime; only the
// fulfillment fields mutate, and each of them is written exactly once.
//
// Fields:
//   - ID: stable string primary key, assigned at seed time.
//   - Name / Age / Story: recipient details shown on the gift card.
//   - GiftTitle / GiftDescription / GiftPrice: the requested gift. Price is
//     a positive decimal amount in USD.
//   - AmazonWishlistURL: external link to the concrete item.
//   - OrnamentColor / PositionTop / PositionLeft: presentation hints for the
//     tree UI; carried through the API but excluded from core semantics.
//   - Purchased: fulfillment flag. Transitions false→true exactly once,
//     driven only by a verified payment-completion event. No code path sets
//     it back to false.
//   - PurchasedAt / StripeSessionID / DonorEmail / AmountPaid / FeeCovered:
//     written together with Purchased in the same UPDATE. AmountPaid is in
//     minor currency units (cents).
type GiftRecipient struct {
	ID                string     `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	Name              string     `json:"name"                gorm:"type:varchar(128);not null"`
	Age               *int       `json:"age,omitempty"`
	Story             string     `json:"story"               gorm:"type:text;not null"`
	GiftTitle         string     `json:"gift_title"          gorm:"type:varchar(255);not null"`
	GiftDescription   string     `json:"gift_description"    gorm:"type:text;not null"`
	GiftPrice         float64    `json:"gift_price"          gorm:"not null;check:gift_price > 0"`
	AmazonWishlistURL string     `json:"amazon_wishlist_url" gorm:"type:text"`
	OrnamentColor     string     `json:"ornament_color"      gorm:"type:varchar(16);not null;check:ornament_color IN ('red','gold','silver','green','blue')"`
	PositionTop       string     `json:"position_top"        gorm:"type:varchar(16)"`
	PositionLeft      string     `json:"position_left"       gorm:"type:varchar(16)"`
	Purchased         bool       `json:"purchased"           gorm:"not null;default:false;index"`
	PurchasedAt       *time.Time `json:"purchased_at,omitempty"`
	StripeSessionID   *string    `json:"stripe_session_id,omitempty" gorm:"type:varchar(255)"`
	DonorEmail        *string    `json:"donor_email,omitempty"       gorm:"type:varchar(255)"`
	AmountPaid        *int64     `json:"amount_paid,omitempty"`
	FeeCovered        *bool      `json:"fee_covered,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName returns the database table name for GiftRecipient.
func (GiftRecipient) TableName() string { return "gift_recipients" }

// PurchaseDetails carries the fulfillment fields recorded when a verified
// payment completes. All of them land in the gift row atomically.
type PurchaseDetails struct {
	// SessionID is the provider checkout-session reference (cs_...).
	SessionID string
	// DonorEmail is the optional email the donor entered at checkout.
	DonorEmail string
	// AmountPaid is the settled amount in minor currency units.
	AmountPaid int64
	// FeeCovered reports whether the donor opted to cover the processing fee.
	FeeCovered bool
}

// GiftUpdate is the incremental change notification propagated to connected
// clients when a gift is purchased. It carries only the fields that change,
// never a full catalog snapshot.
type GiftUpdate struct {
	ID          string     `json:"id"`
	Purchased   bool       `json:"purchased"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
}
