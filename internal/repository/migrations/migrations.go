// Package migrations embeds the goose schema for every supported store.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Up applies every pending migration for the dialect ("sqlite" or "postgres") and returns how many ran.
func Up(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	var (
		gd  goose.Dialect
		dir string
	)
	switch dialect {
	case "sqlite":
		gd, dir = goose.DialectSQLite3, "sqlite"
	case "postgres":
		gd, dir = goose.DialectPostgres, "postgres"
	default:
		return 0, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	sub, err := fs.Sub(files, dir)
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(gd, db, sub)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}
