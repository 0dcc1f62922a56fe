package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Domain-level errors I prefer to bubble up from repository implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	// ErrStoreUnavailable means the store file is missing or the server cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MapPgError translates common Postgres error codes to domain errors.
// I only map what I expect to handle explicitly at higher layers; everything else passes through.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation:
			return ErrConflict
		case pgerrcode.UndefinedTable:
			return ErrStoreUnavailable
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ErrStoreUnavailable
	}
	return err
}

// MapSQLiteError does the same for modernc.org/sqlite extended result codes.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sErr *sqlite.Error
	if errors.As(err, &sErr) {
		switch sErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ErrConflict
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
			return ErrStoreUnavailable
		}
	}
	return err
}
