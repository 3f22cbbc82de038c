package jwt

import (
	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"go.uber.org/fx"
)

func ProvideJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideJWTService),
)
