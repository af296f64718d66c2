package handlers

import (
	"context"

	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, userID, courseID, amount int64) (*model.Order, error)
	Order(ctx context.Context, userID int64, orderID string) (*model.Order, error)
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
}

// PaymentFacade settles orders with payment proofs and failure signals.
type PaymentFacade interface {
	ResolvePayment(ctx context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error)
	CancelOrder(ctx context.Context, actorID int64, orderID string) error
	FailPayment(ctx context.Context, orderID, reason string) error
}

// CourseFacade exposes the course catalog.
type CourseFacade interface {
	Courses(ctx context.Context) ([]model.Course, error)
}

// CoursePayFacade aggregates the full set of operations used across handlers.
type CoursePayFacade interface {
	AuthFacade
	OrderFacade
	PaymentFacade
	CourseFacade
}
