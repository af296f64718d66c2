package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/domain/repository"
	"github.com/vkruglov/coursepay/internal/pkg/signature"
)

// SystemActor marks calls made on behalf of the system itself (webhooks,
// recovery sweeps) rather than an authenticated user.
const SystemActor int64 = 0

// EnrollmentResult is the outcome of a successful payment resolution.
type EnrollmentResult struct {
	Order         *model.Order
	Enrollment    *model.Enrollment
	TotalEnrolled int64
	Replayed      bool
}

// EnrollUseCase drives an order from payment proof to enrollment.
type EnrollUseCase struct {
	orders      repository.OrderRepository
	enrollments repository.EnrollmentRepository
	verifier    signature.Verifier
	logger      *slog.Logger
}

// NewEnrollUseCase constructs EnrollUseCase.
func NewEnrollUseCase(
	orders repository.OrderRepository,
	enrollments repository.EnrollmentRepository,
	verifier signature.Verifier,
	logger *slog.Logger,
) *EnrollUseCase {
	return &EnrollUseCase{
		orders:      orders,
		enrollments: enrollments,
		verifier:    verifier,
		logger:      logger,
	}
}

// Resolve processes a payment proof for an order and, when the proof holds,
// commits the enrollment. Repeated calls for an already enrolled order
// replay the stored outcome. A non-zero actorID restricts resolution to
// orders owned by that user.
//
// An order already VERIFIED is a durable resumption point: the proof was
// checked before the status flip, so resolution continues straight to the
// enrollment commit without re-checking the signature.
func (u *EnrollUseCase) Resolve(ctx context.Context, actorID int64, orderID, paymentID, sig string) (*EnrollmentResult, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorID != SystemActor && order.UserID != actorID {
		return nil, domainErrors.ErrOrderNotFound
	}

	switch {
	case order.Status == model.OrderStatusEnrolled:
		return u.replay(ctx, order)
	case order.Status == model.OrderStatusVerified:
		return u.commit(ctx, order)
	case order.Terminal():
		return nil, domainErrors.ErrOrderNotVerifiable
	}

	if time.Now().After(order.ExpiresAt) {
		// The sweeper owns the EXPIRED transition; here we only refuse.
		return nil, domainErrors.ErrOrderExpired
	}

	if !u.verifier.Verify(orderID, paymentID, sig) {
		return nil, domainErrors.ErrInvalidSignature
	}

	won, err := u.orders.MarkVerified(ctx, orderID, paymentID, sig)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the flip to a concurrent resolver or a terminal transition.
		// Re-read once and follow whatever state the winner left behind.
		order, err = u.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		switch order.Status {
		case model.OrderStatusEnrolled:
			return u.replay(ctx, order)
		case model.OrderStatusVerified:
			return u.commit(ctx, order)
		default:
			return nil, domainErrors.ErrOrderNotVerifiable
		}
	}

	order.Status = model.OrderStatusVerified
	order.PaymentID = &paymentID
	order.Signature = &sig
	return u.commit(ctx, order)
}

func (u *EnrollUseCase) commit(ctx context.Context, order *model.Order) (*EnrollmentResult, error) {
	enrollment, total, created, err := u.enrollments.Commit(ctx, order.ID, order.UserID, order.CourseID)
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderStatusEnrolled

	if !created {
		u.logger.Info("enrollment reused for order",
			slog.String("order_id", order.ID),
			slog.String("source_order_id", enrollment.SourceOrderID),
		)
	}

	return &EnrollmentResult{
		Order:         order,
		Enrollment:    enrollment,
		TotalEnrolled: total,
		Replayed:      !created,
	}, nil
}

func (u *EnrollUseCase) replay(ctx context.Context, order *model.Order) (*EnrollmentResult, error) {
	enrollment, err := u.enrollments.GetByOrder(ctx, order.ID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		// Settled through an earlier order for the same user and course.
		enrollment, err = u.enrollments.GetByUserCourse(ctx, order.UserID, order.CourseID)
	}
	if err != nil {
		return nil, err
	}

	total, err := u.enrollments.CountByCourse(ctx, order.CourseID)
	if err != nil {
		return nil, err
	}

	return &EnrollmentResult{
		Order:         order,
		Enrollment:    enrollment,
		TotalEnrolled: total,
		Replayed:      true,
	}, nil
}
