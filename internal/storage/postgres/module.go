package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/vkruglov/coursepay/internal/config"
	"github.com/vkruglov/coursepay/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.UserRepository { return s.Users() },
		func(s *Storage) repository.CourseRepository { return s.Courses() },
		func(s *Storage) repository.OrderRepository { return s.Orders() },
		func(s *Storage) repository.EnrollmentRepository { return s.Enrollments() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
