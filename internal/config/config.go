// Package config loads runtime configuration from STOCKLEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "STOCKLEDGER"

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds runtime configuration for all processes.
type Config struct {
	App    AppConfig    `envconfig:"APP"`
	DB     DBConfig     `envconfig:"DB"`
	Redis  RedisConfig  `envconfig:"REDIS"`
	JWT    JWTConfig    `envconfig:"JWT"`
	Notify NotifyConfig `envconfig:"NOTIFY"`
	Outbox OutboxConfig `envconfig:"OUTBOX"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

type AppConfig struct {
	Env             string        `envconfig:"ENV" default:"development"`
	Addr            string        `envconfig:"ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	Storage         string        `envconfig:"STORAGE" default:"postgres"`

	// AuthDisabled accepts unauthenticated requests as the "system" actor.
	AuthDisabled bool `envconfig:"AUTH_DISABLED" default:"false"`
}

// IsDevelopment reports whether the app runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

type DBConfig struct {
	DSN              string        `envconfig:"DSN"`
	MaxConns         int32         `envconfig:"MAX_CONNS" default:"20"`
	MinConns         int32         `envconfig:"MIN_CONNS" default:"2"`
	MaxConnLifetime  time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime  time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"30s"`
	AutoMigrate      bool          `envconfig:"AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	// URL enables the Redis sink when set, e.g. redis://localhost:6379/0.
	URL              string `envconfig:"URL"`
	StockChannel     string `envconfig:"STOCK_CHANNEL" default:"stockledger:stock-update"`
	DashboardChannel string `envconfig:"DASHBOARD_CHANNEL" default:"stockledger:dashboard-update"`
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool { return r.URL != "" }

type JWTConfig struct {
	Secret string        `envconfig:"SECRET"`
	Issuer string        `envconfig:"ISSUER" default:"stockledger"`
	TTL    time.Duration `envconfig:"TTL" default:"12h"`
}

type NotifyConfig struct {
	BufferSize int `envconfig:"BUFFER_SIZE" default:"1024"`

	// Outbox stages stock events in sys_outbox within the posting transaction (postgres storage only).
	Outbox bool `envconfig:"OUTBOX" default:"false"`
}

type OutboxConfig struct {
	BatchSize       int           `envconfig:"BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
	Retention       time.Duration `envconfig:"RETENTION" default:"168h"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.App.Storage {
	case StoragePostgres:
		if c.DB.DSN == "" {
			return errors.New("STOCKLEDGER_DB_DSN is required for postgres storage")
		}
	case StorageMemory:
		if c.Notify.Outbox {
			return errors.New("outbox notifications require postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.App.Storage)
	}
	if !c.App.AuthDisabled && c.JWT.Secret == "" {
		return errors.New("STOCKLEDGER_JWT_SECRET is required unless auth is disabled")
	}
	if c.Notify.BufferSize <= 0 {
		return errors.New("notify buffer size must be positive")
	}
	return nil
}
