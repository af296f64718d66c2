package di

import (
	"github.com/vkruglov/coursepay/internal/adapter/gateway"
	"github.com/vkruglov/coursepay/internal/app"
	"github.com/vkruglov/coursepay/internal/config"
	"github.com/vkruglov/coursepay/internal/logger"
	"github.com/vkruglov/coursepay/internal/pkg/auth"
	"github.com/vkruglov/coursepay/internal/pkg/signature"
	"github.com/vkruglov/coursepay/internal/server/http/handlers"
	"github.com/vkruglov/coursepay/internal/server/http/router"
	"github.com/vkruglov/coursepay/internal/storage/postgres"
	"github.com/vkruglov/coursepay/internal/usecase"
	"go.uber.org/fx"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		signature.Module,
		postgres.Module,
		gateway.Module,
		usecase.Module,
		fx.Provide(func(f *app.CoursePayFacade) handlers.CoursePayFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
