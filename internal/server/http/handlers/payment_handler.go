package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/server/http/dto"
	"github.com/vkruglov/coursepay/internal/usecase"
)

// PaymentHandler settles and cancels orders on behalf of the user.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Verify handles POST /api/user/orders/:orderID/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID := c.Param("orderID")

	var req dto.PaymentProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.facade.ResolvePayment(c.Request.Context(), userID, orderID, req.PaymentID, req.Signature)
	if err != nil {
		c.Status(resolveStatus(err))
		return
	}

	c.JSON(http.StatusOK, toEnrollmentResponse(result))
}

// Cancel handles POST /api/user/orders/:orderID/cancel.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID := c.Param("orderID")

	if err := h.facade.CancelOrder(c.Request.Context(), userID, orderID); err != nil {
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
}

func resolveStatus(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrOrderExpired), errors.Is(err, domainErrors.ErrOrderNotVerifiable):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func toEnrollmentResponse(result *usecase.EnrollmentResult) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		OrderID:       result.Order.ID,
		CourseID:      result.Order.CourseID,
		Status:        string(result.Order.Status),
		EnrolledAt:    result.Enrollment.EnrolledAt,
		TotalEnrolled: result.TotalEnrolled,
		Replayed:      result.Replayed,
	}
}
