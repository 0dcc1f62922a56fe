// Package sqlite implements the repository contracts on an embedded SQLite file
// through database/sql and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/maxviazov/afl-stats-service/internal/repository/migrations"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Options tune the connection; zero values fall back to sane defaults.
type Options struct {
	BusyTimeout time.Duration
	ReadOnly    bool
}

// Open opens (creating if needed) the database file for writing and applies migrations.
// A single connection serialises writers, matching the single-ingestion-writer model.
func Open(ctx context.Context, path string, opts Options, logger zerolog.Logger) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	opts.ReadOnly = false
	db, err := sql.Open(driverName, dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", repository.MapSQLiteError(err))
	}
	applied, err := migrations.Up(ctx, db, "sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", path).
		Int("migrations_applied", applied).
		Msg("sqlite store ready")
	return db, nil
}

func dsn(path string, opts Options) string {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	if opts.ReadOnly {
		q.Set("mode", "ro")
	}
	return "file:" + path + "?" + q.Encode()
}

// q is a minimal query executor implemented by both *sql.DB and *sql.Tx.
type q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// getQ returns the transaction carried by ctx or the database itself.
// With one open connection every repository call must go through here or it would block on the tx.
func getQ(ctx context.Context, db *sql.DB) q {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return db
}

func ensureDB(db *sql.DB) error {
	if db == nil {
		return errors.New("sqlite db is nil")
	}
	return nil
}

// mapErr turns sql.ErrNoRows into ErrNotFound and driver codes into domain errors.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return repository.MapSQLiteError(err)
}

// Dates are stored as TEXT in model.DateLayout.

func formatDate(t time.Time) string { return t.UTC().Format(model.DateLayout) }

func formatDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func parseDate(s string) (time.Time, error) {
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad stored date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func strPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
