package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

// FailureUseCase handles the unhappy order transitions: user cancellation
// and gateway-reported payment failure.
type FailureUseCase struct {
	orders repository.OrderRepository
	logger *slog.Logger
}

// NewFailureUseCase constructs FailureUseCase.
func NewFailureUseCase(orders repository.OrderRepository, logger *slog.Logger) *FailureUseCase {
	return &FailureUseCase{orders: orders, logger: logger}
}

// Cancel transitions an order to CANCELLED on behalf of its owner. A repeat
// cancel is a no-op; a settled order refuses with ErrOrderAlreadyResolved.
func (u *FailureUseCase) Cancel(ctx context.Context, actorID int64, orderID string) error {
	return u.terminate(ctx, actorID, orderID, model.OrderStatusCancelled, "cancelled by user")
}

// FailPayment transitions an order to FAILED after the gateway reported the
// payment unsuccessful.
func (u *FailureUseCase) FailPayment(ctx context.Context, orderID, reason string) error {
	if reason == "" {
		reason = "payment failed"
	}
	return u.terminate(ctx, SystemActor, orderID, model.OrderStatusFailed, reason)
}

func (u *FailureUseCase) terminate(ctx context.Context, actorID int64, orderID string, target model.OrderStatus, reason string) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if actorID != SystemActor && order.UserID != actorID {
		return domainErrors.ErrOrderNotFound
	}

	if err := checkTerminable(order, target); err != nil {
		return err
	}
	if order.Status == target {
		return nil
	}

	won, err := u.orders.MarkTerminal(ctx, orderID, target, reason)
	if err != nil {
		return err
	}
	if won {
		u.logger.Info("order terminated",
			slog.String("order_id", orderID),
			slog.String("status", string(target)),
			slog.String("reason", reason),
		)
		return nil
	}

	// Lost the transition to a concurrent resolver. Re-read once and map
	// the final state to the caller's outcome.
	order, err = u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == target {
		return nil
	}
	return checkTerminable(order, target)
}

func checkTerminable(order *model.Order, target model.OrderStatus) error {
	switch order.Status {
	case target:
		return nil
	case model.OrderStatusEnrolled, model.OrderStatusVerified:
		return domainErrors.ErrOrderAlreadyResolved
	case model.OrderStatusCancelled, model.OrderStatusFailed, model.OrderStatusExpired:
		return domainErrors.ErrOrderNotVerifiable
	default:
		return nil
	}
}
