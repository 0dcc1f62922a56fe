package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigLoad_SQLiteDefaults(t *testing.T) {
	path := writeTempConfig(t, `
app:
  name: afl-stats-service
  env: test
  port: 18080
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/afl_stats.db", cfg.SQLite.Path)
	assert.Equal(t, "https://v1.afl.api-sports.io", cfg.Provider.BaseURL)
	assert.Equal(t, 1, cfg.Provider.LeagueID)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowOrigins)
	assert.Empty(t, cfg.Ingest.Schedule)
}

func TestConfigLoad_EnvOverridesStorePath(t *testing.T) {
	path := writeTempConfig(t, `
app:
  name: afl-stats-service
  env: test
  port: 8080
sqlite:
  path: from-file.db
`)
	t.Setenv("APP_SQLITE_PATH", "/var/lib/afl/stats.db")
	t.Setenv("APP_PROVIDER_API_KEY", "secret")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/afl/stats.db", cfg.SQLite.Path)
	assert.Equal(t, "secret", cfg.Provider.APIKey)
}

func TestConfigLoad_PostgresFromYAMLAndEnv(t *testing.T) {
	path := writeTempConfig(t, `
app:
  name: afl-stats-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json
  output_target: stdout

storage:
  driver: postgres

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
  min_conns: 1
`)
	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.Equal(t, int32(5), cfg.Postgres.MaxConns)
}

func TestConfigLoad_PostgresMissingCredentialsFails(t *testing.T) {
	path := writeTempConfig(t, `
app:
  name: abc
  env: test
  port: 18080
storage:
  driver: postgres
`)
	t.Setenv("APP_POSTGRES_USER", "")
	t.Setenv("APP_POSTGRES_PASSWORD", "")
	t.Setenv("APP_POSTGRES_DB", "")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.user")
}

func TestConfigLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			App:      config.AppConfig{Name: "svc", Env: "test", Port: 8080},
			Storage:  config.StorageConfig{Driver: config.DriverSQLite},
			SQLite:   config.SQLiteConfig{Path: "x.db"},
			Provider: config.ProviderConfig{BaseURL: "http://localhost", LeagueID: 1, Timeout: 5, RateLimit: 1},
			Ingest:   config.IngestConfig{JobTimeout: 10},
		}
	}

	require.NoError(t, valid().Validate())

	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())

	c := valid()
	c.Storage.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = valid()
	c.SQLite.Path = "  "
	assert.Error(t, c.Validate())

	c = valid()
	c.Ingest.Schedule = "0 3 * * *"
	assert.Error(t, c.Validate(), "schedule without seasons")
	c.Ingest.Seasons = []int{2025}
	assert.NoError(t, c.Validate())

	c = valid()
	c.Logger.Level = "loud"
	assert.Error(t, c.Validate())
}
