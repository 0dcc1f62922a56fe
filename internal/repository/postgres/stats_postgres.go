package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type statsRepository struct{ pool *pgxpool.Pool }

func NewStatsRepository(pool *pgxpool.Pool) repository.StatsRepository {
	return &statsRepository{pool: pool}
}

const statColumns = `stat_id, player_id, game_id, team_id, opponent_team_id, venue_id, location,
	game_time, disposals, goals, days_since_last_game`

func scanStat(row pgx.Row) (model.PlayerGameStat, error) {
	var (
		out      model.PlayerGameStat
		location string
	)
	err := row.Scan(&out.ID, &out.PlayerID, &out.GameID, &out.TeamID, &out.OpponentTeamID, &out.VenueID,
		&location, &out.GameTime, &out.Disposals, &out.Goals, &out.DaysSinceLastGame)
	if err != nil {
		return model.PlayerGameStat{}, mapErr(err)
	}
	out.Location = model.Side(location)
	return out, nil
}

func (r *statsRepository) FindByPlayerGame(ctx context.Context, playerID, gameID int64) (model.PlayerGameStat, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PlayerGameStat{}, err
	}
	return scanStat(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+statColumns+` FROM player_game_stats WHERE player_id = $1 AND game_id = $2`,
		playerID, gameID))
}

func (r *statsRepository) LastForPlayer(ctx context.Context, playerID int64) (model.LastAppearance, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.LastAppearance{}, err
	}
	var out model.LastAppearance
	err := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT pgs.game_id, pgs.team_id, g.game_date
		 FROM player_game_stats pgs
		 JOIN games g ON g.game_id = pgs.game_id
		 WHERE pgs.player_id = $1
		 ORDER BY pgs.game_id DESC
		 LIMIT 1`, playerID,
	).Scan(&out.GameID, &out.TeamID, &out.GameDate)
	if err != nil {
		return model.LastAppearance{}, mapErr(err)
	}
	return out, nil
}

func (r *statsRepository) Create(ctx context.Context, s model.PlayerGameStat) (model.PlayerGameStat, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PlayerGameStat{}, err
	}
	return scanStat(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO player_game_stats
		   (player_id, game_id, team_id, opponent_team_id, venue_id, location, game_time, disposals, goals)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+statColumns,
		s.PlayerID, s.GameID, s.TeamID, s.OpponentTeamID, s.VenueID, string(s.Location), s.GameTime,
		s.Disposals, s.Goals,
	))
}

// RecomputeDaysSinceLastGame orders each player's games by date; the first game gets NULL.
func (r *statsRepository) RecomputeDaysSinceLastGame(ctx context.Context) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `
		WITH ranked AS (
			SELECT
				pgs.stat_id,
				g.game_date - LAG(g.game_date) OVER (PARTITION BY pgs.player_id ORDER BY g.game_date, pgs.game_id) AS gap
			FROM player_game_stats pgs
			JOIN games g ON g.game_id = pgs.game_id
		)
		UPDATE player_game_stats pgs
		SET days_since_last_game = ranked.gap
		FROM ranked
		WHERE ranked.stat_id = pgs.stat_id`)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.StatsRepository = (*statsRepository)(nil)

type historyRepository struct{ pool *pgxpool.Pool }

func NewTeamHistoryRepository(pool *pgxpool.Pool) repository.TeamHistoryRepository {
	return &historyRepository{pool: pool}
}

const historyColumns = `history_id, player_id, team_id, start_date, end_date, is_current`

func scanHistory(row pgx.Row) (model.PlayerTeamHistory, error) {
	var out model.PlayerTeamHistory
	if err := row.Scan(&out.ID, &out.PlayerID, &out.TeamID, &out.StartDate, &out.EndDate, &out.IsCurrent); err != nil {
		return model.PlayerTeamHistory{}, mapErr(err)
	}
	return out, nil
}

// CloseCurrent is a no-op when the player has no open interval.
func (r *historyRepository) CloseCurrent(ctx context.Context, playerID int64, endDate time.Time) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE player_team_history SET end_date = $1, is_current = FALSE
		 WHERE player_id = $2 AND is_current`,
		endDate, playerID)
	return mapErr(err)
}

func (r *historyRepository) Open(ctx context.Context, playerID, teamID int64, startDate time.Time) (model.PlayerTeamHistory, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	return scanHistory(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO player_team_history (player_id, team_id, start_date, is_current)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING `+historyColumns,
		playerID, teamID, startDate))
}

func (r *historyRepository) Current(ctx context.Context, playerID int64) (model.PlayerTeamHistory, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	return scanHistory(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+historyColumns+` FROM player_team_history WHERE player_id = $1 AND is_current`,
		playerID))
}

func (r *historyRepository) ListByPlayer(ctx context.Context, playerID int64) ([]model.PlayerTeamHistory, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+historyColumns+` FROM player_team_history WHERE player_id = $1 ORDER BY history_id`,
		playerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]model.PlayerTeamHistory, 0, 4)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, mapErr(rows.Err())
}

var _ repository.TeamHistoryRepository = (*historyRepository)(nil)
