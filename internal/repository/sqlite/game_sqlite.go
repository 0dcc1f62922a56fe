package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type gameRepository struct{ db *sql.DB }

func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

const gameColumns = `game_id, api_game_id, season_year, round_number, game_type, game_date, game_time,
	venue_id, home_team_id, away_team_id`

func scanGame(row rowScanner) (model.Game, error) {
	var (
		out   model.Game
		ext   sql.NullInt64
		round sql.NullInt64
		date  string
		clock sql.NullString
	)
	err := row.Scan(&out.ID, &ext, &out.SeasonYear, &round, &out.GameType, &date, &clock,
		&out.VenueID, &out.HomeTeamID, &out.AwayTeamID)
	if err != nil {
		return model.Game{}, mapErr(err)
	}
	if out.Date, err = parseDate(date); err != nil {
		return model.Game{}, err
	}
	out.ExternalID = int64Ptr(ext)
	out.RoundNumber = intPtr(round)
	out.Time = strPtr(clock)
	return out, nil
}

func (r *gameRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Game, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Game{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE api_game_id = ?`, externalID)
	return scanGame(row)
}

func (r *gameRepository) FindByNaturalKey(ctx context.Context, key model.GameKey) (model.Game, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Game{}, err
	}
	// IS gives NULL-safe equality on the round
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE season_year = ? AND round_number IS ? AND game_date = ?
		   AND home_team_id = ? AND away_team_id = ?
		 ORDER BY game_id
		 LIMIT 1`,
		key.SeasonYear, key.RoundNumber, formatDate(key.Date), key.HomeTeamID, key.AwayTeamID,
	)
	return scanGame(row)
}

func (r *gameRepository) SetExternalID(ctx context.Context, id, externalID int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx,
		`UPDATE games SET api_game_id = ? WHERE game_id = ?`, externalID, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (r *gameRepository) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Game{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO games (api_game_id, season_year, round_number, game_type, game_date, game_time,
		                    venue_id, home_team_id, away_team_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+gameColumns,
		g.ExternalID, g.SeasonYear, g.RoundNumber, g.GameType, formatDate(g.Date), g.Time,
		g.VenueID, g.HomeTeamID, g.AwayTeamID,
	)
	return scanGame(row)
}

func (r *gameRepository) GetByID(ctx context.Context, id int64) (model.Game, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Game{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE game_id = ?`, id)
	return scanGame(row)
}

var _ repository.GameRepository = (*gameRepository)(nil)
