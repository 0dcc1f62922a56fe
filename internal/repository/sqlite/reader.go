package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/maxviazov/afl-stats-service/internal/repository"
)

// Reader gives the query path a read-only handle on the store file.
// It never creates the file: a missing file yields repository.ErrStoreUnavailable on every call,
// and the handle is opened lazily once the file appears.
type Reader struct {
	path string
	opts Options

	mu sync.Mutex
	db *sql.DB
}

func NewReader(path string, opts Options) *Reader {
	opts.ReadOnly = true
	return &Reader{path: path, opts: opts}
}

func (r *Reader) conn(ctx context.Context) (*sql.DB, error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, fmt.Errorf("store file %s: %w", r.path, repository.ErrStoreUnavailable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db, nil
	}
	db, err := sql.Open(driverName, dsn(r.path, r.opts))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", r.path, repository.ErrStoreUnavailable)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if mapped := repository.MapSQLiteError(err); mapped == repository.ErrStoreUnavailable {
			return nil, fmt.Errorf("open store %s: %w", r.path, mapped)
		}
		return nil, err
	}
	r.db = db
	return db, nil
}

// Ping reports whether the store file exists and answers.
func (r *Reader) Ping(ctx context.Context) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

var _ repository.Pinger = (*Reader)(nil)
