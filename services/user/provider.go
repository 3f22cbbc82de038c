package user

import (
	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/jwt"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(cfg *config.Config, db *gorm.DB, otps *otp.Service, tokens *jwt.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, otps, tokens, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideUserService),
)
