package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"TASKLY_APP_"`
	Log      LogConfig      `envPrefix:"TASKLY_LOG_"`
	Database DatabaseConfig `envPrefix:"TASKLY_DATABASE_"`
	Mail     MailConfig     `envPrefix:"TASKLY_MAIL_"`
	Auth     AuthConfig     `envPrefix:"TASKLY_AUTH_"`
	OTP      OTPConfig      `envPrefix:"TASKLY_OTP_"`
	JWT      JWTConfig      `envPrefix:"TASKLY_JWT_"`
	Cleanup  CleanupConfig  `envPrefix:"TASKLY_CLEANUP_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"Taskly"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"taskly.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"Taskly App"`
}

type AuthConfig struct {
	BcryptCost     int  `env:"BCRYPT_COST" envDefault:"10"`
	MinLength      int  `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper   bool `env:"REQUIRE_UPPER" envDefault:"true"`
	RequireLower   bool `env:"REQUIRE_LOWER" envDefault:"true"`
	RequireNumber  bool `env:"REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial bool `env:"REQUIRE_SPECIAL" envDefault:"false"`
}

type OTPConfig struct {
	Expiry        time.Duration `env:"EXPIRY" envDefault:"10m"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	PendingExpiry time.Duration `env:"PENDING_EXPIRY" envDefault:"1h"`
}

type JWTConfig struct {
	SecretKey    string        `env:"SECRET_KEY"`
	Issuer       string        `env:"ISSUER" envDefault:"taskly"`
	AccessExpiry time.Duration `env:"ACCESS_EXPIRY" envDefault:"24h"`
}

type CleanupConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Interval time.Duration `env:"INTERVAL" envDefault:"24h"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
