package dto

import "time"

// CreateOrderRequest is a payload for starting a course purchase.
type CreateOrderRequest struct {
	CourseID int64 `json:"course_id" binding:"required"`
	Amount   int64 `json:"amount"`
}

// OrderResponse describes order state returned to the user.
type OrderResponse struct {
	OrderID     string     `json:"order_id"`
	CourseID    int64      `json:"course_id"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	FailReason  *string    `json:"fail_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
