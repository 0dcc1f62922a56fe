package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the YAML file at path, applies APP_* environment overrides and validates the result.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override values missing from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "afl-stats-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", 8080)

	v.SetDefault("http.read_timeout", 10)
	v.SetDefault("http.write_timeout", 10)
	v.SetDefault("http.request_timeout", 5)
	v.SetDefault("http.shutdown_grace", 10)
	v.SetDefault("http.allow_origins", []string{"*"})
	v.SetDefault("http.pprof", false)

	v.SetDefault("logger.level", "")
	v.SetDefault("logger.format", "")
	v.SetDefault("logger.output_target", "")
	v.SetDefault("logger.env", "")

	v.SetDefault("storage.driver", DriverSQLite)

	v.SetDefault("sqlite.path", "data/afl_stats.db")
	v.SetDefault("sqlite.busy_timeout_ms", 5000)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)

	v.SetDefault("provider.base_url", "https://v1.afl.api-sports.io")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.league_id", 1)
	v.SetDefault("provider.timeout", 10)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.retry_wait_min_ms", 500)
	v.SetDefault("provider.retry_wait_max_ms", 10000)
	v.SetDefault("provider.rate_limit", 1.0)

	v.SetDefault("ingest.schedule", "")
	v.SetDefault("ingest.seasons", []int{})
	v.SetDefault("ingest.job_timeout", 120)
}
