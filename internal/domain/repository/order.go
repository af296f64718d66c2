package repository

import (
	"context"
	"time"

	"github.com/vkruglov/coursepay/internal/domain/model"
)

// OrderRepository describes persistence operations with payment orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)

	// MarkVerified conditionally moves the order from CREATED/VERIFYING to
	// VERIFIED, storing the accepted proof. Returns false when the stored
	// status no longer matches, i.e. the caller lost the race.
	MarkVerified(ctx context.Context, orderID, paymentID, signature string) (bool, error)

	// MarkTerminal conditionally moves the order from CREATED/VERIFYING to
	// CANCELLED or FAILED. Returns false when the order was resolved first.
	MarkTerminal(ctx context.Context, orderID string, status model.OrderStatus, reason string) (bool, error)

	// ExpireStale transitions CREATED/VERIFYING orders past their deadline
	// to EXPIRED and returns the number of orders swept.
	ExpireStale(ctx context.Context) (int64, error)

	// SelectVerifiedBatch picks VERIFIED orders untouched since olderThan
	// for enrollment recovery, locking them against concurrent sweepers.
	SelectVerifiedBatch(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
}
