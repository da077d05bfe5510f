// Package services – domain metrics.
//
// Prometheus collectors for the purchase funnel. HTTP-level metrics
// (request counts, latencies) live in the middleware package; the counters
// here track business outcomes that dashboards and alerts care about:
// sessions handed to the provider, purchases recorded, duplicate completions
// (refund-worthy, see WebhookService), and webhook deliveries by outcome.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	checkoutSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "giftdrive_checkout_sessions_total",
		Help: "Checkout sessions successfully created with the payment provider.",
	})

	purchasesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "giftdrive_purchases_total",
		Help: "Gift fulfillment transitions recorded from verified payment events.",
	})

	purchasesDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "giftdrive_purchases_duplicate_total",
		Help: "Verified payment completions for gifts that were already purchased.",
	})

	// webhookEvents counts deliveries by outcome: processed, replayed,
	// ignored (non-checkout event types), rejected (bad signature or
	// metadata), and failed (store unavailable, still acked).
	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftdrive_webhook_events_total",
			Help: "Payment provider webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(checkoutSessions, purchasesRecorded, purchasesDuplicate, webhookEvents)
}
