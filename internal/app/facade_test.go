package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	testhelpers "github.com/vkruglov/coursepay/internal/test"
	"github.com/vkruglov/coursepay/internal/usecase"
)

type facadeDeps struct {
	users       *testhelpers.UserRepositoryStub
	courses     *testhelpers.CourseRepositoryStub
	orders      *testhelpers.OrderRepositoryStub
	enrollments *testhelpers.EnrollmentRepositoryStub
	gateway     testhelpers.GatewayClientStub
}

func newFacade() (*CoursePayFacade, *facadeDeps) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	deps := &facadeDeps{
		users: testhelpers.NewUserRepositoryStub(),
		courses: &testhelpers.CourseRepositoryStub{Courses: []model.Course{
			{ID: 1, Title: "Go Basics", Price: 4900, Currency: "USD"},
		}},
		orders:      testhelpers.NewOrderRepositoryStub(),
		enrollments: &testhelpers.EnrollmentRepositoryStub{},
		gateway:     testhelpers.GatewayClientStub{OrderID: "gw-1"},
	}

	strategy := testhelpers.StrategyStub{ParseFn: func(string) (int64, error) { return 99, nil }}
	authUC := usecase.NewAuthUseCase(deps.users, testhelpers.HasherStub{}, strategy)
	orderUC := usecase.NewOrderUseCase(deps.orders, deps.courses, deps.gateway, logger, 30*time.Minute)
	enrollUC := usecase.NewEnrollUseCase(deps.orders, deps.enrollments, testhelpers.VerifierStub{OK: true}, logger)
	failureUC := usecase.NewFailureUseCase(deps.orders, logger)
	courseUC := usecase.NewCourseUseCase(deps.courses)

	return NewCoursePayFacade(authUC, orderUC, enrollUC, failureUC, courseUC), deps
}

func TestCoursePayFacadeAuth(t *testing.T) {
	facade, deps := newFacade()

	token, err := facade.Register(context.Background(), "user", "pass")
	if err != nil || token != "token" {
		t.Fatalf("unexpected register result: token=%q err=%v", token, err)
	}
	if _, err := deps.users.GetByLogin(context.Background(), "user"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}

	token, err = facade.Authenticate(context.Background(), "user", "pass")
	if err != nil || token != "token" {
		t.Fatalf("unexpected authenticate result: token=%q err=%v", token, err)
	}

	id, err := facade.ParseToken("anything")
	if err != nil || id != 99 {
		t.Fatalf("unexpected parse result: id=%d err=%v", id, err)
	}
}

func TestCoursePayFacadeOrderFlow(t *testing.T) {
	facade, deps := newFacade()

	order, err := facade.CreateOrder(context.Background(), 7, 1, 4900)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.ID != "gw-1" || order.Status != model.OrderStatusCreated {
		t.Fatalf("unexpected order: %+v", order)
	}

	listed, err := facade.Orders(context.Background(), 7)
	if err != nil || len(listed) != 1 {
		t.Fatalf("unexpected orders: %v err=%v", listed, err)
	}

	fetched, err := facade.Order(context.Background(), 7, "gw-1")
	if err != nil || fetched.CourseID != 1 {
		t.Fatalf("unexpected order: %+v err=%v", fetched, err)
	}
	if _, err := facade.Order(context.Background(), 8, "gw-1"); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}

	result, err := facade.ResolvePayment(context.Background(), 7, "gw-1", "pay-1", "sig")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Order.Status != model.OrderStatusEnrolled || result.TotalEnrolled != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(deps.enrollments.Enrollments) != 1 {
		t.Fatalf("expected one enrollment, got %d", len(deps.enrollments.Enrollments))
	}

	courses, err := facade.Courses(context.Background())
	if err != nil || len(courses) != 1 {
		t.Fatalf("unexpected courses: %v err=%v", courses, err)
	}
}

func TestCoursePayFacadeCancelAndFail(t *testing.T) {
	facade, deps := newFacade()

	deps.orders.Orders["ord-1"] = &model.Order{
		ID: "ord-1", UserID: 7, CourseID: 1,
		Status:    model.OrderStatusCreated,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := facade.CancelOrder(context.Background(), 7, "ord-1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if deps.orders.Orders["ord-1"].Status != model.OrderStatusCancelled {
		t.Fatalf("unexpected status: %s", deps.orders.Orders["ord-1"].Status)
	}

	deps.orders.Orders["ord-2"] = &model.Order{
		ID: "ord-2", UserID: 7, CourseID: 1,
		Status:    model.OrderStatusCreated,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := facade.FailPayment(context.Background(), "ord-2", "declined"); err != nil {
		t.Fatalf("fail payment failed: %v", err)
	}
	if deps.orders.Orders["ord-2"].Status != model.OrderStatusFailed {
		t.Fatalf("unexpected status: %s", deps.orders.Orders["ord-2"].Status)
	}

	if err := facade.CancelOrder(context.Background(), 7, "missing"); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCoursePayFacadeSweeperSurface(t *testing.T) {
	facade, deps := newFacade()

	deps.orders.Orders["stale"] = &model.Order{
		ID: "stale", UserID: 7, CourseID: 1,
		Status:    model.OrderStatusCreated,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	deps.orders.Orders["stuck"] = &model.Order{
		ID: "stuck", UserID: 7, CourseID: 1,
		Status:    model.OrderStatusVerified,
		UpdatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	expired, err := facade.ExpireStaleOrders(context.Background())
	if err != nil || expired != 1 {
		t.Fatalf("unexpected expiry: %d err=%v", expired, err)
	}

	batch, err := facade.VerifiedOrdersForRecovery(context.Background(), time.Now(), 10)
	if err != nil || len(batch) != 1 || batch[0].ID != "stuck" {
		t.Fatalf("unexpected batch: %v err=%v", batch, err)
	}

	result, err := facade.ResolvePayment(context.Background(), usecase.SystemActor, "stuck", "", "")
	if err != nil {
		t.Fatalf("recovery resolve failed: %v", err)
	}
	if result.Order.Status != model.OrderStatusEnrolled {
		t.Fatalf("unexpected status: %s", result.Order.Status)
	}
}
