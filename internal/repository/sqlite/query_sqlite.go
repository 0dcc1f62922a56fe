package sqlite

import (
	"context"
	"fmt"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type queryRepository struct{ reader *Reader }

// NewQueryRepository serves over/under reads through a lazily opened read-only handle.
func NewQueryRepository(reader *Reader) repository.QueryRepository {
	return &queryRepository{reader: reader}
}

func (r *queryRepository) ResolvePlayerID(ctx context.Context, name string) (int64, error) {
	db, err := r.reader.conn(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	err = db.QueryRowContext(ctx,
		`SELECT player_id FROM vw_complete_game_stats WHERE player_name = ? ORDER BY player_id LIMIT 1`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// One statement per statistic; the column never comes from input.
const (
	tallyDisposalsSQL = `
		SELECT
			COUNT(disposals),
			COALESCE(SUM(CASE WHEN disposals > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN disposals = ? THEN 1 ELSE 0 END), 0)
		FROM vw_complete_game_stats
		WHERE player_id = ?`
	tallyGoalsSQL = `
		SELECT
			COUNT(goals),
			COALESCE(SUM(CASE WHEN goals > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN goals = ? THEN 1 ELSE 0 END), 0)
		FROM vw_complete_game_stats
		WHERE player_id = ?`
)

func (r *queryRepository) TallyStat(ctx context.Context, playerID int64, stat model.Stat, threshold float64) (model.StatTally, error) {
	var query string
	switch stat {
	case model.StatDisposals:
		query = tallyDisposalsSQL
	case model.StatGoals:
		query = tallyGoalsSQL
	default:
		return model.StatTally{}, fmt.Errorf("unsupported stat %d", stat)
	}

	db, err := r.reader.conn(ctx)
	if err != nil {
		return model.StatTally{}, err
	}
	var out model.StatTally
	if err := db.QueryRowContext(ctx, query, threshold, threshold, playerID).
		Scan(&out.Total, &out.Above, &out.Equal); err != nil {
		return model.StatTally{}, mapErr(err)
	}
	return out, nil
}

var _ repository.QueryRepository = (*queryRepository)(nil)
