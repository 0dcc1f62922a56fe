package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type queryRepository struct{ pool *pgxpool.Pool }

func NewQueryRepository(pool *pgxpool.Pool) repository.QueryRepository {
	return &queryRepository{pool: pool}
}

func (r *queryRepository) ResolvePlayerID(ctx context.Context, name string) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT player_id FROM vw_complete_game_stats WHERE player_name = $1 ORDER BY player_id LIMIT 1`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// One statement per statistic; the column never comes from input.
// The threshold is cast so an integer column does not coerce the parameter to integer.
const (
	tallyDisposalsSQL = `
		SELECT
			COUNT(disposals),
			COALESCE(SUM(CASE WHEN disposals > $1::float8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN disposals = $1::float8 THEN 1 ELSE 0 END), 0)
		FROM vw_complete_game_stats
		WHERE player_id = $2`
	tallyGoalsSQL = `
		SELECT
			COUNT(goals),
			COALESCE(SUM(CASE WHEN goals > $1::float8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN goals = $1::float8 THEN 1 ELSE 0 END), 0)
		FROM vw_complete_game_stats
		WHERE player_id = $2`
)

func (r *queryRepository) TallyStat(ctx context.Context, playerID int64, stat model.Stat, threshold float64) (model.StatTally, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.StatTally{}, err
	}
	var query string
	switch stat {
	case model.StatDisposals:
		query = tallyDisposalsSQL
	case model.StatGoals:
		query = tallyGoalsSQL
	default:
		return model.StatTally{}, fmt.Errorf("unsupported stat %d", stat)
	}
	var out model.StatTally
	if err := r.pool.QueryRow(ctx, query, threshold, playerID).Scan(&out.Total, &out.Above, &out.Equal); err != nil {
		return model.StatTally{}, mapErr(err)
	}
	return out, nil
}

var _ repository.QueryRepository = (*queryRepository)(nil)

type integrityRepository struct{ pool *pgxpool.Pool }

func NewIntegrityRepository(pool *pgxpool.Pool) repository.IntegrityRepository {
	return &integrityRepository{pool: pool}
}

func (r *integrityRepository) FindPotentialDuplicates(ctx context.Context) ([]model.DuplicatePlayer, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, repository.DuplicatesSQL)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var raw []repository.DuplicateRow
	for rows.Next() {
		var (
			row repository.DuplicateRow
			dob *time.Time
		)
		if err := rows.Scan(&row.Name, &row.PlayerID, &row.ExternalID, &dob); err != nil {
			return nil, mapErr(err)
		}
		if dob != nil {
			s := dob.Format(model.DateLayout)
			row.DateOfBirth = &s
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return repository.FoldDuplicates(raw), nil
}

func (r *integrityRepository) RunChecks(ctx context.Context) ([]model.IntegrityCheck, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	out := make([]model.IntegrityCheck, 0, len(repository.IntegrityRules))
	for _, rule := range repository.IntegrityRules {
		var n int
		if err := exec.QueryRow(ctx, rule.CountSQL()).Scan(&n); err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", rule.Name, mapErr(err))
		}
		out = append(out, model.IntegrityCheck{Name: rule.Name, Violations: n})
	}
	return out, nil
}

var _ repository.IntegrityRepository = (*integrityRepository)(nil)
