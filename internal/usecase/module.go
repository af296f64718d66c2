package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/vkruglov/coursepay/internal/adapter/gateway"
	"github.com/vkruglov/coursepay/internal/config"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	newOrderUseCase,
	NewEnrollUseCase,
	NewFailureUseCase,
	NewCourseUseCase,
)

type orderUseCaseParams struct {
	fx.In

	Orders  repository.OrderRepository
	Courses repository.CourseRepository
	Gateway gateway.Client
	Logger  *slog.Logger
	Config  *config.Config
}

func newOrderUseCase(p orderUseCaseParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Courses, p.Gateway, p.Logger, p.Config.OrderTTL)
}
