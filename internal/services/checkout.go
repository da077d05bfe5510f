// Package services – CheckoutService
//
// This file implements the CheckoutService, which turns a shopper's gift
// selection into a hosted payment session. It validates the request against
// catalog state (existence, availability), computes the optional processing
// fee, and asks the payment provider for a redirect URL. The gift id, donor
// email, fee flag, and base price travel as opaque metadata on the session so
// the webhook handler can fulfill the purchase without a second catalog read.
//
// Creating a session has no side effect on the catalog: a gift is recorded
// as purchased only when the provider confirms payment, never at session
// creation, so gifts cannot be marked sold before money has moved.
package services

import (
	"context"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/tbourn/go-giftdrive-backend/internal/catalog"
)

// ProcessingFeeRate is the provider's card-processing rate the donor can
// optionally cover on top of the gift price.
const ProcessingFeeRate = 0.03

// ProcessingFee returns the optional fee for a gift price in dollars,
// rounded to cents.
func ProcessingFee(price float64) float64 {
	return math.Round(price*ProcessingFeeRate*100) / 100
}

// MinorUnits converts a dollar amount to integer minor currency units for
// the payment provider.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// SessionCreator is the narrow slice of the payment provider's API the
// service needs. *session.Client from stripe-go satisfies it; tests supply a
// fake.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutService creates hosted checkout sessions for available gifts.
type CheckoutService struct {
	// Store is the gift catalog; read-only from this service's perspective.
	Store catalog.Store
	// Sessions is the payment provider client.
	Sessions SessionCreator
	// BaseURL is the public site origin used to build the success and
	// cancel redirect URLs, e.g. "https://example.org".
	BaseURL string
}

// Create validates the purchase request and requests a hosted payment
// session for giftID.
//
// Semantics:
//   - Unknown giftID yields ErrGiftNotFound; the provider is not contacted.
//   - An already-purchased gift yields ErrGiftAlreadyPurchased; the provider
//     is not contacted. This pre-check is a UX optimization: the guarded
//     store update on payment completion is the correctness backstop.
//   - When coverFee is set, fee = round(price * 0.03, 2); the charge total
//     is price + fee, expressed in minor units.
//   - donorEmail, when present, prefills the provider's email field and is
//     echoed back through session metadata.
//
// On success it returns the provider-hosted redirect URL. Provider failures
// come back wrapped in ErrPaymentProvider for the handler to surface as an
// upstream error; no money has moved yet, so the shopper can simply retry.
// Catalog read failures are returned as-is.
func (s *CheckoutService) Create(ctx context.Context, giftID string, coverFee bool, donorEmail string) (string, error) {
	gift, err := s.Store.Get(ctx, giftID)
	if err != nil {
		return "", err
	}
	if gift == nil {
		return "", ErrGiftNotFound
	}
	if gift.Purchased {
		return "", ErrGiftAlreadyPurchased
	}

	basePrice := gift.GiftPrice
	fee := 0.0
	if coverFee {
		fee = ProcessingFee(basePrice)
	}
	totalCents := MinorUnits(basePrice + fee)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.BaseURL + "/gift-drive/thank-you?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.BaseURL + "/gift-drive"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(totalCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Gift for %s - %s", gift.Name, gift.GiftTitle)),
						Description: stripe.String(gift.GiftDescription),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("gift_id", gift.ID)
	params.AddMetadata("donor_email", donorEmail)
	params.AddMetadata("fee_covered", boolString(coverFee))
	params.AddMetadata("base_price", fmt.Sprintf("%g", basePrice))
	if donorEmail != "" {
		params.CustomerEmail = stripe.String(donorEmail)
	}

	sess, err := s.Sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	checkoutSessions.Inc()
	return sess.URL, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
