package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/server/http/dto"
	"github.com/vkruglov/coursepay/internal/usecase"
)

const (
	eventPaymentSucceeded = "payment.succeeded"
	eventPaymentFailed    = "payment.failed"
)

// WebhookHandler receives payment callbacks from the gateway.
type WebhookHandler struct {
	facade PaymentFacade
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade PaymentFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Payment handles POST /api/webhooks/payment. The signature inside the
// payload authenticates the sender, so the route carries no user auth.
func (h *WebhookHandler) Payment(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	switch req.Event {
	case eventPaymentSucceeded:
		result, err := h.facade.ResolvePayment(c.Request.Context(), usecase.SystemActor, req.OrderID, req.PaymentID, req.Signature)
		if err != nil {
			c.Status(resolveStatus(err))
			return
		}
		c.JSON(http.StatusOK, toEnrollmentResponse(result))
	case eventPaymentFailed:
		if err := h.facade.FailPayment(c.Request.Context(), req.OrderID, req.Reason); err != nil {
			switch {
			case errors.Is(err, domainErrors.ErrOrderNotFound):
				c.Status(http.StatusNotFound)
			case errors.Is(err, domainErrors.ErrOrderAlreadyResolved):
				c.Status(http.StatusConflict)
			case errors.Is(err, domainErrors.ErrOrderNotVerifiable):
				c.Status(http.StatusGone)
			default:
				c.Status(http.StatusInternalServerError)
			}
			return
		}
		c.Status(http.StatusOK)
	default:
		c.Status(http.StatusBadRequest)
	}
}
