package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/afl-stats-service/internal/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	HTTP     HTTPConfig          `mapstructure:"http"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	SQLite   SQLiteConfig        `mapstructure:"sqlite"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Provider ProviderConfig      `mapstructure:"provider"`
	Ingest   IngestConfig        `mapstructure:"ingest"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
}

type HTTPConfig struct {
	// Seconds.
	ReadTimeout    int      `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout   int      `mapstructure:"write_timeout" validate:"min=0"`
	RequestTimeout int      `mapstructure:"request_timeout" validate:"min=0"`
	ShutdownGrace  int      `mapstructure:"shutdown_grace" validate:"min=0"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
	// Pprof mounts /debug/pprof; keep it off outside dev.
	Pprof          bool     `mapstructure:"pprof"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
}

// SQLiteConfig points at the embedded database file. The path is the only
// location the services ever read; there is no process-wide fallback.
type SQLiteConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms" validate:"min=0"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type ProviderConfig struct {
	BaseURL      string  `mapstructure:"base_url" validate:"required,url"`
	APIKey       string  `mapstructure:"api_key"`
	LeagueID     int     `mapstructure:"league_id" validate:"min=1"`
	Timeout      int     `mapstructure:"timeout" validate:"min=1"`
	MaxRetries   int     `mapstructure:"max_retries" validate:"min=0"`
	RetryWaitMin int     `mapstructure:"retry_wait_min_ms" validate:"min=0"`
	RetryWaitMax int     `mapstructure:"retry_wait_max_ms" validate:"min=0"`
	RateLimit    float64 `mapstructure:"rate_limit" validate:"gt=0"`
}

type IngestConfig struct {
	// Schedule is a cron expression; empty disables scheduled sync in the server.
	Schedule string `mapstructure:"schedule"`
	Seasons  []int  `mapstructure:"seasons"`
	// JobTimeout bounds one scheduled run, in minutes.
	JobTimeout int `mapstructure:"job_timeout" validate:"min=1"`
}

// Validate checks struct tags plus the rules that depend on the chosen driver.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			return errors.New("sqlite.path is required for the sqlite driver")
		}
	case DriverPostgres:
		var missing []string
		if c.Postgres.User == "" {
			missing = append(missing, "postgres.user")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "postgres.password")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "postgres.db")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required settings for postgres driver: %s", strings.Join(missing, ", "))
		}
	}
	if c.Ingest.Schedule != "" && len(c.Ingest.Seasons) == 0 {
		return errors.New("ingest.seasons must list at least one season when ingest.schedule is set")
	}
	return nil
}
