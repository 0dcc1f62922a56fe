// Package storage wires the configured backend into the repository sets the services consume.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/maxviazov/afl-stats-service/internal/repository/postgres"
	"github.com/maxviazov/afl-stats-service/internal/repository/sqlite"
	"github.com/rs/zerolog"
)

// Writer is the ingestion side: every write repository plus the transaction boundary.
type Writer struct {
	Tx        repository.TxManager
	Teams     repository.TeamRepository
	Venues    repository.VenueRepository
	Players   repository.PlayerRepository
	Games     repository.GameRepository
	Stats     repository.StatsRepository
	History   repository.TeamHistoryRepository
	Integrity repository.IntegrityRepository
	Pinger    repository.Pinger

	closeFn func()
}

func (w *Writer) Close() {
	if w != nil && w.closeFn != nil {
		w.closeFn()
	}
}

// Reader is the query side. It opens without touching the schema.
type Reader struct {
	Query  repository.QueryRepository
	Pinger repository.Pinger

	closeFn func()
}

func (r *Reader) Close() {
	if r != nil && r.closeFn != nil {
		r.closeFn()
	}
}

func sqliteOptions(cfg *config.Config) sqlite.Options {
	return sqlite.Options{BusyTimeout: time.Duration(cfg.SQLite.BusyTimeoutMS) * time.Millisecond}
}

// OpenWriter connects, applies migrations and returns the write-side repositories.
func OpenWriter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Writer, error) {
	log := logger.With().Str("module", "storage").Str("driver", cfg.Storage.Driver).Logger()
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, sqliteOptions(cfg), log)
		if err != nil {
			return nil, err
		}
		return &Writer{
			Tx:        sqlite.NewTxManager(db),
			Teams:     sqlite.NewTeamRepository(db),
			Venues:    sqlite.NewVenueRepository(db),
			Players:   sqlite.NewPlayerRepository(db),
			Games:     sqlite.NewGameRepository(db),
			Stats:     sqlite.NewStatsRepository(db),
			History:   sqlite.NewTeamHistoryRepository(db),
			Integrity: sqlite.NewIntegrityRepository(db),
			Pinger:    sqlite.NewPinger(db),
			closeFn:   func() { _ = db.Close() },
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Postgres, log, true)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		return &Writer{
			Tx:        postgres.NewTxManager(pool),
			Teams:     postgres.NewTeamRepository(pool),
			Venues:    postgres.NewVenueRepository(pool),
			Players:   postgres.NewPlayerRepository(pool),
			Games:     postgres.NewGameRepository(pool),
			Stats:     postgres.NewStatsRepository(pool),
			History:   postgres.NewTeamHistoryRepository(pool),
			Integrity: postgres.NewIntegrityRepository(pool),
			Pinger:    postgres.NewPinger(pool),
			closeFn:   pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// OpenReader never fails because the store is missing or down; queries report that per call.
func OpenReader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Reader, error) {
	log := logger.With().Str("module", "storage").Str("driver", cfg.Storage.Driver).Logger()
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		reader := sqlite.NewReader(cfg.SQLite.Path, sqliteOptions(cfg))
		if err := reader.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("path", cfg.SQLite.Path).Msg("store not reachable yet; queries will fail until it is")
		}
		return &Reader{
			Query:   sqlite.NewQueryRepository(reader),
			Pinger:  reader,
			closeFn: func() { _ = reader.Close() },
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Postgres, log, false)
		if err != nil {
			return nil, err
		}
		return &Reader{
			Query:   postgres.NewQueryRepository(pool),
			Pinger:  postgres.NewPinger(pool),
			closeFn: pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
