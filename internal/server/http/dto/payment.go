package dto

import "time"

// PaymentProofRequest carries the gateway-issued payment proof.
type PaymentProofRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// EnrollmentResponse is returned once an order is settled into an enrollment.
type EnrollmentResponse struct {
	OrderID       string    `json:"order_id"`
	CourseID      int64     `json:"course_id"`
	Status        string    `json:"status"`
	EnrolledAt    time.Time `json:"enrolled_at"`
	TotalEnrolled int64     `json:"total_enrolled"`
	Replayed      bool      `json:"replayed"`
}

// PaymentWebhookRequest mirrors the gateway callback payload.
type PaymentWebhookRequest struct {
	Event     string `json:"event" binding:"required"`
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Reason    string `json:"reason"`
}
