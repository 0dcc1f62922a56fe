package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/maxviazov/afl-stats-service/internal/repository/contract"
	"github.com/maxviazov/afl-stats-service/internal/repository/sqlite"
	"github.com/rs/zerolog"
)

// makeStore hands every subtest its own migrated database file.
func makeStore(t *testing.T) (contract.Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "afl_stats.db")
	db, err := sqlite.Open(context.Background(), path, sqlite.Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	reader := sqlite.NewReader(path, sqlite.Options{})
	store := contract.Store{
		Tx:        sqlite.NewTxManager(db),
		Teams:     sqlite.NewTeamRepository(db),
		Venues:    sqlite.NewVenueRepository(db),
		Players:   sqlite.NewPlayerRepository(db),
		Games:     sqlite.NewGameRepository(db),
		Stats:     sqlite.NewStatsRepository(db),
		History:   sqlite.NewTeamHistoryRepository(db),
		Query:     sqlite.NewQueryRepository(reader),
		Integrity: sqlite.NewIntegrityRepository(db),
		Pinger:    sqlite.NewPinger(db),
	}
	return store, func() {
		_ = reader.Close()
		_ = db.Close()
	}
}

func TestSQLiteContract(t *testing.T) {
	contract.RunAll(t, makeStore)
}
