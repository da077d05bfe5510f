// Package services – WebhookService
//
// This file implements the WebhookService, the trust boundary between the
// payment provider and the catalog. Only a delivery whose signature verifies
// against the raw body may mutate fulfillment state. The service filters for
// completed checkouts, recovers the purchase context from session metadata,
// and applies the one-shot fulfillment update.
//
// Store failures are deliberately best-effort: the money movement is
// authoritative and the bookkeeping update is advisory, so a DB outage is
// logged and the delivery is still acknowledged rather than sending the
// provider into an endless retry loop. The processed-event record is written
// only after a successful update, leaving a later retry able to repair a
// transient outage.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tbourn/go-giftdrive-backend/internal/catalog"
	"github.com/tbourn/go-giftdrive-backend/internal/domain"
)

// checkoutCompleted is the only event type that drives fulfillment; every
// other type is acknowledged and ignored.
const checkoutCompleted = "checkout.session.completed"

// EventLog records processed provider events for duplicate-delivery
// detection. Implementations are optional (nil disables dedup; the guarded
// store update still guarantees idempotent fulfillment).
type EventLog interface {
	// Seen reports whether eventID was already processed.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Record marks eventID as processed.
	Record(ctx context.Context, eventID, eventType string) error
}

// WebhookService verifies and applies payment-completion notifications.
type WebhookService struct {
	// Store is the catalog receiving fulfillment updates.
	Store catalog.Store
	// Secret is the shared webhook signing secret (whsec_...).
	Secret string
	// Events is the optional processed-event log. May be nil.
	Events EventLog
}

// Process handles one webhook delivery given the raw body and the value of
// the provider's signature header.
//
// Errors returned to the caller (for a 400 response):
//   - ErrMissingSignature when the header is empty.
//   - ErrInvalidSignature when verification fails.
//   - ErrMissingGiftID when a completed checkout carries no gift_id.
//   - a decode error when a verified payload cannot be parsed as a
//     checkout session.
//
// Everything else — unknown event types, duplicate deliveries, unknown gift
// ids, store outages — resolves to nil so the provider receives 200 and does
// not retry for a problem on the receiving side.
func (s *WebhookService) Process(ctx context.Context, payload []byte, sigHeader string) error {
	if sigHeader == "" {
		webhookEvents.WithLabelValues("rejected").Inc()
		return ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		webhookEvents.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if string(event.Type) != checkoutCompleted {
		webhookEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		webhookEvents.WithLabelValues("rejected").Inc()
		return fmt.Errorf("decode checkout session: %w", err)
	}

	giftID := sess.Metadata["gift_id"]
	if giftID == "" {
		webhookEvents.WithLabelValues("rejected").Inc()
		return ErrMissingGiftID
	}
	donorEmail := sess.Metadata["donor_email"]
	feeCovered := sess.Metadata["fee_covered"] == "true"

	lg := log.With().
		Str("event_id", event.ID).
		Str("gift_id", giftID).
		Str("session_id", sess.ID).
		Logger()

	if s.Events != nil {
		seen, err := s.Events.Seen(ctx, event.ID)
		if err != nil {
			// Dedup is an optimization; fall through to the idempotent update.
			lg.Warn().Err(err).Msg("webhook event lookup failed")
		} else if seen {
			lg.Info().Msg("duplicate webhook delivery, already processed")
			webhookEvents.WithLabelValues("replayed").Inc()
			return nil
		}
	}

	updated, err := s.Store.MarkPurchased(ctx, giftID, domain.PurchaseDetails{
		SessionID:  sess.ID,
		DonorEmail: donorEmail,
		AmountPaid: sess.AmountTotal,
		FeeCovered: feeCovered,
	})
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		// Payment succeeded for a gift we do not know. Nothing to fulfill;
		// ack so the provider stops retrying, but leave a loud trace.
		lg.Error().Msg("payment completed for unknown gift")
		webhookEvents.WithLabelValues("failed").Inc()
		return nil
	case err != nil:
		// Store unavailable. Payment already succeeded, so ack and let a
		// provider retry (or an operator) repair the record later.
		lg.Error().Err(err).Msg("fulfillment update failed, acknowledging anyway")
		webhookEvents.WithLabelValues("failed").Inc()
		return nil
	case !updated:
		// Second completed payment for the same gift: the no-op keeps state
		// consistent, the warning flags a refund-worthy event for review.
		lg.Warn().Msg("payment completed for already-purchased gift")
		purchasesDuplicate.Inc()
		webhookEvents.WithLabelValues("replayed").Inc()
	default:
		lg.Info().Int64("amount_paid", sess.AmountTotal).Msg("gift fulfilled")
		purchasesRecorded.Inc()
		webhookEvents.WithLabelValues("processed").Inc()
	}

	if s.Events != nil {
		if err := s.Events.Record(ctx, event.ID, string(event.Type)); err != nil {
			lg.Warn().Err(err).Msg("failed to record processed webhook event")
		}
	}
	return nil
}
