package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Reconcile
		Auth
		Upload
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Reconcile struct {
		Enabled        bool
		Schedule       string // Cron format: "0 * * * *" = hourly
		PenaltyPerHour int    // Currency units accrued per overdue hour
	}
	Auth struct {
		Enabled     bool   // Enforce bearer tokens on staff routes
		JWTSecret   string // HMAC signing secret; auto-generated if empty
		TokenExpiry time.Duration
		BcryptCost  int
	}
	Upload struct {
		MaxCoverSizeBytes int64
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 5000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Reconciliation sweep defaults
	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("penalty_per_hour", DefaultPenaltyPerHour)

	// Auth defaults
	v.SetDefault("auth_enabled", false)
	v.SetDefault("auth_jwt_secret", "")   // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "1h")
	v.SetDefault("auth_bcrypt_cost", 12)

	// Upload defaults
	v.SetDefault("max_cover_size_bytes", DefaultMaxCoverSizeBytes)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Reconcile: Reconcile{
			Enabled:        v.GetBool("RECONCILE_ENABLED"),
			Schedule:       v.GetString("RECONCILE_SCHEDULE"),
			PenaltyPerHour: v.GetInt("PENALTY_PER_HOUR"),
		},
		Auth: Auth{
			Enabled:     v.GetBool("AUTH_ENABLED"),
			JWTSecret:   v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry: v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:  v.GetInt("AUTH_BCRYPT_COST"),
		},
		Upload: Upload{
			MaxCoverSizeBytes: v.GetInt64("MAX_COVER_SIZE_BYTES"),
		},
	}
}
