package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type statsRepository struct{ db *sql.DB }

func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

const statColumns = `stat_id, player_id, game_id, team_id, opponent_team_id, venue_id, location,
	game_time, disposals, goals, days_since_last_game`

func scanStat(row rowScanner) (model.PlayerGameStat, error) {
	var (
		out       model.PlayerGameStat
		location  string
		clock     sql.NullString
		disposals sql.NullInt64
		goals     sql.NullInt64
		days      sql.NullInt64
	)
	err := row.Scan(&out.ID, &out.PlayerID, &out.GameID, &out.TeamID, &out.OpponentTeamID, &out.VenueID,
		&location, &clock, &disposals, &goals, &days)
	if err != nil {
		return model.PlayerGameStat{}, mapErr(err)
	}
	out.Location = model.Side(location)
	out.GameTime = strPtr(clock)
	out.Disposals = intPtr(disposals)
	out.Goals = intPtr(goals)
	out.DaysSinceLastGame = intPtr(days)
	return out, nil
}

func (r *statsRepository) FindByPlayerGame(ctx context.Context, playerID, gameID int64) (model.PlayerGameStat, error) {
	if err := ensureDB(r.db); err != nil {
		return model.PlayerGameStat{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+statColumns+` FROM player_game_stats WHERE player_id = ? AND game_id = ?`,
		playerID, gameID)
	return scanStat(row)
}

func (r *statsRepository) LastForPlayer(ctx context.Context, playerID int64) (model.LastAppearance, error) {
	if err := ensureDB(r.db); err != nil {
		return model.LastAppearance{}, err
	}
	var (
		out  model.LastAppearance
		date string
	)
	err := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT pgs.game_id, pgs.team_id, g.game_date
		 FROM player_game_stats pgs
		 JOIN games g ON g.game_id = pgs.game_id
		 WHERE pgs.player_id = ?
		 ORDER BY pgs.game_id DESC
		 LIMIT 1`, playerID,
	).Scan(&out.GameID, &out.TeamID, &date)
	if err != nil {
		return model.LastAppearance{}, mapErr(err)
	}
	if out.GameDate, err = parseDate(date); err != nil {
		return model.LastAppearance{}, err
	}
	return out, nil
}

func (r *statsRepository) Create(ctx context.Context, s model.PlayerGameStat) (model.PlayerGameStat, error) {
	if err := ensureDB(r.db); err != nil {
		return model.PlayerGameStat{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO player_game_stats
		   (player_id, game_id, team_id, opponent_team_id, venue_id, location, game_time, disposals, goals)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+statColumns,
		s.PlayerID, s.GameID, s.TeamID, s.OpponentTeamID, s.VenueID, string(s.Location), s.GameTime,
		s.Disposals, s.Goals,
	)
	return scanStat(row)
}

// RecomputeDaysSinceLastGame orders each player's games by date; the first game gets NULL.
func (r *statsRepository) RecomputeDaysSinceLastGame(ctx context.Context) (int64, error) {
	if err := ensureDB(r.db); err != nil {
		return 0, err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx, `
		WITH ranked AS (
			SELECT
				pgs.stat_id,
				g.game_date,
				LAG(g.game_date) OVER (PARTITION BY pgs.player_id ORDER BY g.game_date, pgs.game_id) AS prev_game_date
			FROM player_game_stats pgs
			JOIN games g ON g.game_id = pgs.game_id
		)
		UPDATE player_game_stats
		SET days_since_last_game = (
			SELECT CAST(JULIANDAY(rk.game_date) - JULIANDAY(rk.prev_game_date) AS INTEGER)
			FROM ranked rk
			WHERE rk.stat_id = player_game_stats.stat_id
		)`)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

var _ repository.StatsRepository = (*statsRepository)(nil)
