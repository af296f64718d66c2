package app

import (
	"context"
	"time"

	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/usecase"
)

// CoursePayFacade glues use cases into the single surface consumed by the
// HTTP layer and the background sweeper.
type CoursePayFacade struct {
	auth    *usecase.AuthUseCase
	orders  *usecase.OrderUseCase
	enroll  *usecase.EnrollUseCase
	failure *usecase.FailureUseCase
	courses *usecase.CourseUseCase
}

func NewCoursePayFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	enroll *usecase.EnrollUseCase,
	failure *usecase.FailureUseCase,
	courses *usecase.CourseUseCase,
) *CoursePayFacade {
	return &CoursePayFacade{
		auth:    auth,
		orders:  orders,
		enroll:  enroll,
		failure: failure,
		courses: courses,
	}
}

func (f *CoursePayFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *CoursePayFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CoursePayFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *CoursePayFacade) CreateOrder(ctx context.Context, userID, courseID, amount int64) (*model.Order, error) {
	return f.orders.Create(ctx, userID, courseID, amount)
}

func (f *CoursePayFacade) Order(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	return f.orders.GetForUser(ctx, userID, orderID)
}

func (f *CoursePayFacade) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *CoursePayFacade) ResolvePayment(ctx context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error) {
	return f.enroll.Resolve(ctx, actorID, orderID, paymentID, signature)
}

func (f *CoursePayFacade) CancelOrder(ctx context.Context, actorID int64, orderID string) error {
	return f.failure.Cancel(ctx, actorID, orderID)
}

func (f *CoursePayFacade) FailPayment(ctx context.Context, orderID, reason string) error {
	return f.failure.FailPayment(ctx, orderID, reason)
}

func (f *CoursePayFacade) Courses(ctx context.Context) ([]model.Course, error) {
	return f.courses.List(ctx)
}

func (f *CoursePayFacade) ExpireStaleOrders(ctx context.Context) (int64, error) {
	return f.orders.ExpireStale(ctx)
}

func (f *CoursePayFacade) VerifiedOrdersForRecovery(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return f.orders.VerifiedForRecovery(ctx, olderThan, limit)
}
