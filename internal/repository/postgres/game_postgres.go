package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type gameRepository struct{ pool *pgxpool.Pool }

func NewGameRepository(pool *pgxpool.Pool) repository.GameRepository {
	return &gameRepository{pool: pool}
}

const gameColumns = `game_id, api_game_id, season_year, round_number, game_type, game_date, game_time,
	venue_id, home_team_id, away_team_id`

func scanGame(row pgx.Row) (model.Game, error) {
	var out model.Game
	err := row.Scan(&out.ID, &out.ExternalID, &out.SeasonYear, &out.RoundNumber, &out.GameType, &out.Date, &out.Time,
		&out.VenueID, &out.HomeTeamID, &out.AwayTeamID)
	if err != nil {
		return model.Game{}, mapErr(err)
	}
	return out, nil
}

func (r *gameRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	return scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE api_game_id = $1`, externalID))
}

func (r *gameRepository) FindByNaturalKey(ctx context.Context, key model.GameKey) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	return scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE season_year = $1 AND round_number IS NOT DISTINCT FROM $2::integer AND game_date = $3
		   AND home_team_id = $4 AND away_team_id = $5
		 ORDER BY game_id
		 LIMIT 1`,
		key.SeasonYear, key.RoundNumber, key.Date, key.HomeTeamID, key.AwayTeamID,
	))
}

func (r *gameRepository) SetExternalID(ctx context.Context, id, externalID int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE games SET api_game_id = $1 WHERE game_id = $2`, externalID, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(tag)
}

func (r *gameRepository) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	return scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO games (api_game_id, season_year, round_number, game_type, game_date, game_time,
		                    venue_id, home_team_id, away_team_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+gameColumns,
		g.ExternalID, g.SeasonYear, g.RoundNumber, g.GameType, g.Date, g.Time,
		g.VenueID, g.HomeTeamID, g.AwayTeamID,
	))
}

func (r *gameRepository) GetByID(ctx context.Context, id int64) (model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Game{}, err
	}
	return scanGame(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE game_id = $1`, id))
}

var _ repository.GameRepository = (*gameRepository)(nil)
