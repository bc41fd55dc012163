// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Supported DB_DRIVER values.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the runtime settings.
type Config struct {
	AppPort     string
	LogLevel    string
	DBDriver    string
	DatabaseDSN string
	RabbitMQURL string // empty disables messaging
	JWTSecret   string
	TokenTTL    time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverMemory)
	v.SetDefault("DATABASE_DSN", "file::memory:?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_TTL", "24h")
}

// Load reads the configuration from v, which should have defaults set and
// AutomaticEnv enabled.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:     v.GetString("APP_PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DBDriver:    v.GetString("DB_DRIVER"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		TokenTTL:    v.GetDuration("TOKEN_TTL"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver != DriverMemory && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DBDriver)
	}
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}
