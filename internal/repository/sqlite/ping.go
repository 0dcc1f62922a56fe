package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type pinger struct{ db *sql.DB }

// NewPinger adapts a writable handle to the repository.Pinger interface.
func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error {
	if err := ensureDB(p.db); err != nil {
		return err
	}
	return mapErr(p.db.PingContext(ctx))
}
