package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration, loaded from the environment
// with the TRADEFLOW_ prefix. A .env file is honored when present so local
// runs do not need to export everything by hand.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Metrics MetricsConfig
	Flags   FeatureFlags
}

type AppConfig struct {
	Env             string `envconfig:"APP_ENV" default:"development"`
	Port            int    `envconfig:"PORT" default:"8080"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"15"`
}

type DBConfig struct {
	DSN          string `envconfig:"DB_DSN"`
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         int    `envconfig:"DB_PORT" default:"5432"`
	User         string `envconfig:"DB_USER" default:"tradeflow"`
	Password     string `envconfig:"DB_PASSWORD"`
	Name         string `envconfig:"DB_NAME" default:"tradeflow"`
	SSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

type FeatureFlags struct {
	AutoMigrate       bool `envconfig:"AUTO_MIGRATE" default:"false"`
	IdempotencyChecks bool `envconfig:"IDEMPOTENCY_CHECKS" default:"true"`
}

// Load reads configuration from the environment. Missing .env is not an
// error; explicit environment variables always win over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("TRADEFLOW", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	cfg.DB.DSN = ensureDSN(cfg.DB)
	return &cfg, nil
}

// ensureDSN builds a postgres DSN from the individual fields when no
// explicit DSN is set.
func ensureDSN(db DBConfig) string {
	if strings.TrimSpace(db.DSN) != "" {
		return db.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
