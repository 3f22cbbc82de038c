package otp

import (
	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideOTPService(cfg *config.Config, db *gorm.DB, notifier Notifier, logger *logging.Service) *Service {
	return NewService(cfg, db, notifier, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideOTPService),
)
