package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")

	ErrCourseNotFound = errors.New("course not found")
	ErrOrderNotFound  = errors.New("order not found")

	// ErrInvalidSignature rejects a payment proof without consuming the order:
	// a retry with the correct signature stays possible until the order expires.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrOrderNotVerifiable is returned for orders settled in a terminal
	// non-success state, regardless of the supplied proof.
	ErrOrderNotVerifiable = errors.New("order not verifiable")

	ErrOrderExpired = errors.New("order expired")

	// ErrOrderAlreadyResolved guards enrolled orders against cancellation:
	// money was captured, undoing that is a refund workflow.
	ErrOrderAlreadyResolved = errors.New("order already resolved")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
