package mail

import (
	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
	fx.Provide(func(s *Service) otp.Notifier { return s }),
)
