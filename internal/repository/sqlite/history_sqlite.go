package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type historyRepository struct{ db *sql.DB }

func NewTeamHistoryRepository(db *sql.DB) repository.TeamHistoryRepository {
	return &historyRepository{db: db}
}

const historyColumns = `history_id, player_id, team_id, start_date, end_date, is_current`

func scanHistory(row rowScanner) (model.PlayerTeamHistory, error) {
	var (
		out   model.PlayerTeamHistory
		start string
		end   sql.NullString
	)
	err := row.Scan(&out.ID, &out.PlayerID, &out.TeamID, &start, &end, &out.IsCurrent)
	if err != nil {
		return model.PlayerTeamHistory{}, mapErr(err)
	}
	if out.StartDate, err = parseDate(start); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	if out.EndDate, err = parseNullDate(end); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	return out, nil
}

// CloseCurrent is a no-op when the player has no open interval.
func (r *historyRepository) CloseCurrent(ctx context.Context, playerID int64, endDate time.Time) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	_, err := getQ(ctx, r.db).ExecContext(ctx,
		`UPDATE player_team_history SET end_date = ?, is_current = 0
		 WHERE player_id = ? AND is_current = 1`,
		formatDate(endDate), playerID)
	return mapErr(err)
}

func (r *historyRepository) Open(ctx context.Context, playerID, teamID int64, startDate time.Time) (model.PlayerTeamHistory, error) {
	if err := ensureDB(r.db); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO player_team_history (player_id, team_id, start_date, is_current)
		 VALUES (?, ?, ?, 1)
		 RETURNING `+historyColumns,
		playerID, teamID, formatDate(startDate))
	return scanHistory(row)
}

func (r *historyRepository) Current(ctx context.Context, playerID int64) (model.PlayerTeamHistory, error) {
	if err := ensureDB(r.db); err != nil {
		return model.PlayerTeamHistory{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM player_team_history WHERE player_id = ? AND is_current = 1`,
		playerID)
	return scanHistory(row)
}

func (r *historyRepository) ListByPlayer(ctx context.Context, playerID int64) ([]model.PlayerTeamHistory, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).QueryContext(ctx,
		`SELECT `+historyColumns+` FROM player_team_history WHERE player_id = ? ORDER BY history_id`,
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
