package cleanup

import (
	"context"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"github.com/taskly-app/identity/services/user"
	"go.uber.org/fx"
)

func ProvideCleanupService(cfg *config.Config, otps *otp.Service, users *user.Service, logger *logging.Service) *Service {
	return NewService(cfg, otps, users, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideCleanupService),
	fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				svc.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				svc.Stop()
				return nil
			},
		})
	}),
)
