package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type teamRepository struct{ db *sql.DB }

func NewTeamRepository(db *sql.DB) repository.TeamRepository {
	return &teamRepository{db: db}
}

const teamColumns = `team_id, team_name, api_team_id, is_active`

func scanTeam(row rowScanner) (model.Team, error) {
	var (
		out model.Team
		ext sql.NullInt64
	)
	if err := row.Scan(&out.ID, &out.Name, &ext, &out.IsActive); err != nil {
		return model.Team{}, mapErr(err)
	}
	out.ExternalID = int64Ptr(ext)
	return out, nil
}

func (r *teamRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Team, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Team{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE api_team_id = ?`, externalID)
	return scanTeam(row)
}

func (r *teamRepository) FindByName(ctx context.Context, name string) (model.Team, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Team{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE team_name = ?`, name)
	return scanTeam(row)
}

func (r *teamRepository) SetExternalID(ctx context.Context, id, externalID int64) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx,
		`UPDATE teams SET api_team_id = ? WHERE team_id = ?`, externalID, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (r *teamRepository) Create(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Team{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO teams (team_name, api_team_id, is_active) VALUES (?, ?, ?)
		 RETURNING `+teamColumns,
		t.Name, t.ExternalID, t.IsActive,
	)
	return scanTeam(row)
}

// requireAffected reports ErrNotFound when an UPDATE matched nothing.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TeamRepository = (*teamRepository)(nil)
