package signature

import (
	"go.uber.org/fx"

	"github.com/vkruglov/coursepay/internal/config"
)

// Module provides the payment proof verifier via fx.
var Module = fx.Provide(newVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
}

func newVerifier(p verifierParams) (Verifier, error) {
	return NewHMACVerifier(p.Config.GatewaySecret)
}
