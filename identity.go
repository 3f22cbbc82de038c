// Package identity provides the Taskly identity verification core: OTP
// issuance and verification, pending registrations, and the registration,
// login, and password reset flows built on them.
package identity

import (
	"github.com/taskly-app/identity/app"
	"github.com/taskly-app/identity/config"
)

type App = app.App

func New() *app.Builder {
	return app.NewBuilder()
}

func WithConfig(cfg *config.Config) *app.Builder {
	return app.NewBuilder().WithConfig(cfg)
}
