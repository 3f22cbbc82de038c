package app

import (
	"fmt"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/database"
	"github.com/taskly-app/identity/services/cleanup"
	"github.com/taskly-app/identity/services/jwt"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/mail"
	"github.com/taskly-app/identity/services/otp"
	"github.com/taskly-app/identity/services/user"
	"go.uber.org/fx"
)

type Builder struct {
	config    *config.Config
	fxOptions []fx.Option
	cleanup   bool
	errors    []error
}

func NewBuilder() *Builder {
	return &Builder{
		fxOptions: make([]fx.Option, 0),
		cleanup:   true,
	}
}

func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	if cfg == nil {
		b.errors = append(b.errors, fmt.Errorf("config cannot be nil"))
		return b
	}
	b.config = cfg
	return b
}

func (b *Builder) WithAutoConfig() *Builder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.errors = append(b.errors, fmt.Errorf("failed to load config: %w", err))
		return b
	}
	b.config = cfg
	return b
}

// WithoutCleanup disables the background purge sweep; expiry is still
// enforced at read time.
func (b *Builder) WithoutCleanup() *Builder {
	b.cleanup = false
	return b
}

func (b *Builder) WithFxOptions(opts ...fx.Option) *Builder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *Builder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		if err := b.WithAutoConfig().buildErr(); err != nil {
			return nil, err
		}
	}

	app := &App{config: b.config}

	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(database.WithModels(
			&user.User{},
			&user.PendingRegistration{},
			&otp.Code{},
		)),
		fx.NopLogger,
		logging.Module,
		database.Module,
		mail.Module,
		jwt.Module,
		otp.Module,
		user.Module,
	}

	if b.cleanup {
		options = append(options, cleanup.Module)
	}

	options = append(options, b.fxOptions...)

	options = append(options, fx.Invoke(func(users *user.Service, mailer *mail.Service) {
		users.SetMailService(mailer)
	}))

	options = append(options, fx.Populate(&app.logger, &app.db, &app.users))

	app.fx = fx.New(options...)

	return app, nil
}

func (b *Builder) buildErr() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}
	return nil
}
