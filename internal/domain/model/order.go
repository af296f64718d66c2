package model

import "time"

// OrderStatus describes the checkout lifecycle.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusVerifying OrderStatus = "VERIFYING"
	OrderStatusVerified  OrderStatus = "VERIFIED"
	OrderStatusEnrolled  OrderStatus = "ENROLLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusEnrolled, OrderStatusCancelled, OrderStatusFailed, OrderStatusExpired:
		return true
	}
	return false
}

// Verifiable reports whether a payment proof may still be checked against
// the order. VERIFIED is excluded on purpose: its signature was already
// accepted and only the enrollment commit remains.
func (s OrderStatus) Verifiable() bool {
	return s == OrderStatusCreated || s == OrderStatusVerifying
}

// Order tracks one checkout attempt. ID is the gateway-issued order
// identifier and never changes once the row exists.
type Order struct {
	ID          string
	UserID      int64
	CourseID    int64
	Amount      int64
	Currency    string
	Status      OrderStatus
	PaymentID   *string
	Signature   *string
	FailReason  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
	CompletedAt *time.Time
}

// Terminal reports whether the order reached a terminal status.
func (o *Order) Terminal() bool {
	return o.Status.Terminal()
}

// Verifiable reports whether the order still accepts a payment proof.
func (o *Order) Verifiable() bool {
	return o.Status.Verifiable()
}
