package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/vkruglov/coursepay/internal/adapter/gateway"
	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	orders  repository.OrderRepository
	courses repository.CourseRepository
	gateway gateway.Client
	logger  *slog.Logger
	ttl     time.Duration
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	courses repository.CourseRepository,
	gatewayClient gateway.Client,
	logger *slog.Logger,
	ttl time.Duration,
) *OrderUseCase {
	return &OrderUseCase{
		orders:  orders,
		courses: courses,
		gateway: gatewayClient,
		logger:  logger,
		ttl:     ttl,
	}
}

// Create registers a payment order with the gateway first, then records it
// locally under the gateway-issued identifier. A zero amount defaults to the
// course price; anything else must match it exactly.
func (u *OrderUseCase) Create(ctx context.Context, userID, courseID, amount int64) (*model.Order, error) {
	if amount < 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	course, err := u.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		amount = course.Price
	}
	if amount != course.Price {
		return nil, domainErrors.ErrInvalidAmount
	}

	gatewayOrderID, err := u.gateway.CreateOrder(ctx, amount, course.Currency)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:        gatewayOrderID,
		UserID:    userID,
		CourseID:  courseID,
		Amount:    amount,
		Currency:  course.Currency,
		Status:    model.OrderStatusCreated,
		ExpiresAt: time.Now().Add(u.ttl),
	}

	if err := u.orders.Create(ctx, order); err != nil {
		// The gateway order exists but we never recorded it. It will sit
		// unpaid on the gateway side until their own expiry reaps it.
		u.logger.Error("orphaned gateway order",
			slog.String("gateway_order_id", gatewayOrderID),
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return nil, err
	}

	return order, nil
}

// GetForUser returns the order if it belongs to the given user.
func (u *OrderUseCase) GetForUser(ctx context.Context, userID int64, orderID string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrOrderNotFound
	}
	return order, nil
}

// ListByUser returns orders sorted by creation time, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// ExpireStale transitions orders past their payment deadline to EXPIRED.
func (u *OrderUseCase) ExpireStale(ctx context.Context) (int64, error) {
	return u.orders.ExpireStale(ctx)
}

// VerifiedForRecovery returns verified orders whose enrollment never
// completed, so the sweeper can re-drive them.
func (u *OrderUseCase) VerifiedForRecovery(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return u.orders.SelectVerifiedBatch(ctx, olderThan, limit)
}
