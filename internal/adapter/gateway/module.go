package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/vkruglov/coursepay/internal/config"
)

// Module exposes gateway client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.GatewayAddress, p.Config.GatewayTimeout, p.Logger)
}
