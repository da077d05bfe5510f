package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giftdrive-backend/internal/http/middleware"
	"github.com/tbourn/go-giftdrive-backend/internal/services"
)

// maxWebhookBody caps the webhook payload size. Stripe events are small;
// anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 16 // 64 KiB

// WebhookHandler receives payment provider event deliveries.
type WebhookHandler struct {
	Service *services.WebhookService
}

// NewWebhookHandler constructs a WebhookHandler over svc.
func NewWebhookHandler(svc *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{Service: svc}
}

// Receive verifies and processes one event delivery. The raw body is read
// before any parsing because signature verification covers the exact bytes
// sent by the provider.
//
// Responses follow the provider's retry contract: 2xx acknowledges the
// delivery, 4xx tells the provider the request itself was malformed. Internal
// fulfillment failures are still acknowledged so a transient bug cannot hold
// a donor's payment event in the retry queue forever.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "Could not read request body")
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	err = h.Service.Process(c.Request.Context(), payload, sig)
	switch {
	case err == nil:
		ok(c, http.StatusOK, gin.H{"received": true})
	case errors.Is(err, services.ErrMissingSignature),
		errors.Is(err, services.ErrInvalidSignature):
		fail(c, http.StatusBadRequest, CodeInvalidSignature, "Webhook signature verification failed")
	case errors.Is(err, services.ErrMissingGiftID):
		fail(c, http.StatusBadRequest, CodeBadRequest, "Event metadata is missing the gift id")
	default:
		// Only a payload that verified but failed to decode lands here;
		// keep the surface two-valued (200 ack | 400 malformed).
		middleware.LoggerFrom(c).Warn().Err(err).Msg("undecodable webhook payload")
		fail(c, http.StatusBadRequest, CodeBadRequest, "Malformed event payload")
	}
}
