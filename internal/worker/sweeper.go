package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/usecase"
)

// CoursePayFacade exposes the subset of application functionality required by the sweeper.
type CoursePayFacade interface {
	ExpireStaleOrders(ctx context.Context) (int64, error)
	VerifiedOrdersForRecovery(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
	ResolvePayment(ctx context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error)
}

// Sweeper periodically expires stale orders and re-drives verified orders
// whose enrollment never completed.
type Sweeper struct {
	facade        CoursePayFacade
	interval      time.Duration
	batchSize     int
	recoveryGrace time.Duration
	logger        *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the background sweeper.
func NewSweeper(facade CoursePayFacade, interval time.Duration, batchSize int, recoveryGrace time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Sweeper{
		facade:        facade,
		interval:      interval,
		batchSize:     batchSize,
		recoveryGrace: recoveryGrace,
		logger:        logger,
	}
}

// Start launches background sweeping.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for the sweeper loop to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.facade.ExpireStaleOrders(ctx)
	if err != nil {
		s.logger.Error("expire sweep failed", slog.String("error", err.Error()))
	} else if expired > 0 {
		s.logger.Info("orders expired", slog.Int64("count", expired))
	}

	// Only pick up verified orders that have sat untouched for the grace
	// period, so we never race a request that is mid-enrollment.
	olderThan := time.Now().Add(-s.recoveryGrace)
	orders, err := s.facade.VerifiedOrdersForRecovery(ctx, olderThan, s.batchSize)
	if err != nil {
		s.logger.Error("recovery sweep failed", slog.String("error", err.Error()))
		return
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			return
		}
		s.recover(ctx, order)
	}
}

func (s *Sweeper) recover(ctx context.Context, order model.Order) {
	// A VERIFIED order already carries a checked proof, so resolution
	// resumes without one.
	result, err := s.facade.ResolvePayment(ctx, usecase.SystemActor, order.ID, "", "")
	if err != nil {
		if errors.Is(err, domainErrors.ErrOrderNotVerifiable) {
			return
		}
		s.logger.Error("order recovery failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("order recovered",
		slog.String("order_id", order.ID),
		slog.Bool("replayed", result.Replayed),
	)
}
