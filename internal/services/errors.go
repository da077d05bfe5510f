// Package services defines the business logic for checkout-session creation
// and payment-webhook processing. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// them to user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

// Checkout-related errors.
var (
	// ErrGiftNotFound indicates that the requested gift id does not exist in
	// the catalog.
	ErrGiftNotFound = errors.New("gift not found")

	// ErrGiftAlreadyPurchased is returned when checkout is attempted for a
	// gift whose purchased flag is already set. It closes the common
	// double-sell race before any money moves.
	ErrGiftAlreadyPurchased = errors.New("gift already purchased")

	// ErrPaymentProvider wraps failures from the payment provider's API, so
	// callers can tell an upstream outage apart from a catalog one.
	ErrPaymentProvider = errors.New("payment provider request failed")
)

// Webhook-related errors.
var (
	// ErrMissingSignature is returned when the provider signature header is
	// absent from a webhook delivery.
	ErrMissingSignature = errors.New("missing signature header")

	// ErrInvalidSignature is returned when the signature does not verify
	// against the raw body. Only a verified event may mutate fulfillment
	// state.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMissingGiftID is returned when a completed checkout event carries no
	// gift_id in its metadata, leaving nothing to fulfill.
	ErrMissingGiftID = errors.New("missing gift_id in event metadata")
)
