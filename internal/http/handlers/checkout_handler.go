package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giftdrive-backend/internal/http/middleware"
	"github.com/tbourn/go-giftdrive-backend/internal/services"
)

// CheckoutRequest is the payload for starting a checkout session.
type CheckoutRequest struct {
	// GiftID identifies the gift being purchased.
	GiftID string `json:"giftId" binding:"required" example:"1"`
	// CoverFee indicates the donor opted to cover the processing fee.
	CoverFee bool `json:"coverFee" example:"true"`
	// DonorEmail optionally pre-fills the payment form and is recorded on
	// fulfillment.
	DonorEmail string `json:"donorEmail" binding:"omitempty,email" example:"donor@example.com"`
}

// CheckoutResponse carries the hosted payment page URL the client should
// redirect the donor to.
type CheckoutResponse struct {
	URL string `json:"checkoutUrl" example:"https://checkout.stripe.com/c/pay/cs_test_123"`
}

// CheckoutHandler starts payment sessions for gifts.
type CheckoutHandler struct {
	Service *services.CheckoutService
}

// NewCheckoutHandler constructs a CheckoutHandler over svc.
func NewCheckoutHandler(svc *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Service: svc}
}

// Create validates the request, creates a checkout session with the payment
// provider and returns its URL.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return
	}

	url, err := h.Service.Create(c.Request.Context(), req.GiftID, req.CoverFee, req.DonorEmail)
	switch {
	case err == nil:
		ok(c, http.StatusOK, CheckoutResponse{URL: url})
	case errors.Is(err, services.ErrGiftNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, "Gift not found")
	case errors.Is(err, services.ErrGiftAlreadyPurchased):
		fail(c, http.StatusConflict, CodeConflict, "This gift has already been purchased")
	case errors.Is(err, services.ErrPaymentProvider):
		middleware.LoggerFrom(c).Error().Err(err).Str("gift_id", req.GiftID).Msg("checkout session creation failed")
		fail(c, http.StatusInternalServerError, CodePaymentProviderError, "Could not start checkout")
	default:
		// Catalog read failure, not Stripe's fault.
		middleware.LoggerFrom(c).Error().Err(err).Str("gift_id", req.GiftID).Msg("catalog read failed")
		fail(c, http.StatusInternalServerError, CodeInternalError, "Could not start checkout")
	}
}
