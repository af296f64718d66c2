package test

import (
	"context"
	"sync"
	"time"

	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/usecase"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateOrderFn func(context.Context, int64, int64, int64) (*model.Order, error)
	OrderFn       func(context.Context, int64, string) (*model.Order, error)
	OrdersFn      func(context.Context, int64) ([]model.Order, error)
}

// CreateOrder delegates to provided function or returns a default order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, userID, courseID, amount int64) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, userID, courseID, amount)
	}
	return &model.Order{
		ID:       "ord-1",
		UserID:   userID,
		CourseID: courseID,
		Amount:   amount,
		Currency: "USD",
		Status:   model.OrderStatusCreated,
	}, nil
}

// Order returns a predefined order owned by the user.
func (s OrderFacadeStub) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCreated}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: "ord-1", UserID: userID}}, nil
}

// PaymentFacadeStub simulates payment resolution operations.
type PaymentFacadeStub struct {
	ResolveFn func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error)
	CancelFn  func(context.Context, int64, string) error
	FailFn    func(context.Context, string, string) error
}

// ResolvePayment returns configured result or a default enrollment.
func (s PaymentFacadeStub) ResolvePayment(ctx context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, actorID, orderID, paymentID, signature)
	}
	return &usecase.EnrollmentResult{
		Order:         &model.Order{ID: orderID, Status: model.OrderStatusEnrolled},
		Enrollment:    &model.Enrollment{SourceOrderID: orderID, EnrolledAt: time.Unix(0, 0)},
		TotalEnrolled: 1,
	}, nil
}

// CancelOrder executes configured cancel handler.
func (s PaymentFacadeStub) CancelOrder(ctx context.Context, actorID int64, orderID string) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, actorID, orderID)
	}
	return nil
}

// FailPayment executes configured failure handler.
func (s PaymentFacadeStub) FailPayment(ctx context.Context, orderID, reason string) error {
	if s.FailFn != nil {
		return s.FailFn(ctx, orderID, reason)
	}
	return nil
}

// CourseFacadeStub serves a canned course catalog.
type CourseFacadeStub struct {
	CoursesFn func(context.Context) ([]model.Course, error)
}

// Courses returns the configured catalog.
func (s CourseFacadeStub) Courses(ctx context.Context) ([]model.Course, error) {
	if s.CoursesFn != nil {
		return s.CoursesFn(ctx)
	}
	return []model.Course{{ID: 1, Title: "Go Basics", Price: 4900, Currency: "USD"}}, nil
}

// SweeperFacadeStub mimics sweeper interactions with the application facade.
type SweeperFacadeStub struct {
	ExpireFn   func(context.Context) (int64, error)
	RecoveryFn func(context.Context, time.Time, int) ([]model.Order, error)
	ResolveFn  func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error)

	mu       sync.Mutex
	Resolved []string
}

// ExpireStaleOrders delegates to override or reports nothing expired.
func (s *SweeperFacadeStub) ExpireStaleOrders(ctx context.Context) (int64, error) {
	if s.ExpireFn != nil {
		return s.ExpireFn(ctx)
	}
	return 0, nil
}

// VerifiedOrdersForRecovery returns configured recovery batches.
func (s *SweeperFacadeStub) VerifiedOrdersForRecovery(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if s.RecoveryFn != nil {
		return s.RecoveryFn(ctx, olderThan, limit)
	}
	return nil, nil
}

// ResolvePayment records resolved order identifiers.
func (s *SweeperFacadeStub) ResolvePayment(ctx context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error) {
	s.mu.Lock()
	s.Resolved = append(s.Resolved, orderID)
	s.mu.Unlock()
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, actorID, orderID, paymentID, signature)
	}
	return &usecase.EnrollmentResult{
		Order:      &model.Order{ID: orderID, Status: model.OrderStatusEnrolled},
		Enrollment: &model.Enrollment{SourceOrderID: orderID},
	}, nil
}

// ResolvedOrders returns a snapshot of recorded resolutions.
func (s *SweeperFacadeStub) ResolvedOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Resolved...)
}

// GatewayClientStub simulates the payment gateway client.
type GatewayClientStub struct {
	CreateOrderFn func(context.Context, int64, string) (string, error)
	OrderID       string
	Err           error
}

// CreateOrder returns the configured gateway order identifier.
func (s GatewayClientStub) CreateOrder(ctx context.Context, amount int64, currency string) (string, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, amount, currency)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.OrderID != "" {
		return s.OrderID, nil
	}
	return "gw-order", nil
}

// VerifierStub controls signature verification outcomes.
type VerifierStub struct {
	VerifyFn func(string, string, string) bool
	OK       bool
}

// Verify delegates to override or returns the configured outcome.
func (s VerifierStub) Verify(orderID, paymentID, signature string) bool {
	if s.VerifyFn != nil {
		return s.VerifyFn(orderID, paymentID, signature)
	}
	return s.OK
}
