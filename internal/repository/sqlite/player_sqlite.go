package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type playerRepository struct{ db *sql.DB }

func NewPlayerRepository(db *sql.DB) repository.PlayerRepository {
	return &playerRepository{db: db}
}

const playerColumns = `player_id, player_name, api_player_id, first_name, last_name, date_of_birth, debut_year`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (model.Player, error) {
	var (
		out       model.Player
		ext       sql.NullInt64
		first     sql.NullString
		last      sql.NullString
		dob       sql.NullString
		debutYear sql.NullInt64
	)
	if err := row.Scan(&out.ID, &out.Name, &ext, &first, &last, &dob, &debutYear); err != nil {
		return model.Player{}, mapErr(err)
	}
	birth, err := parseNullDate(dob)
	if err != nil {
		return model.Player{}, err
	}
	out.ExternalID = int64Ptr(ext)
	out.FirstName = strPtr(first)
	out.LastName = strPtr(last)
	out.DateOfBirth = birth
	out.DebutYear = intPtr(debutYear)
	return out, nil
}

func (r *playerRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Player, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Player{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE api_player_id = ?`, externalID)
	return scanPlayer(row)
}

func (r *playerRepository) FindOtherByName(ctx context.Context, name string, externalID int64) ([]model.Player, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE player_name = ? AND api_player_id IS NOT NULL AND api_player_id <> ?
		 ORDER BY player_id`,
		name, externalID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

func (r *playerRepository) UpdateName(ctx context.Context, id int64, name string) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx,
		`UPDATE players SET player_name = ? WHERE player_id = ?`, name, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (r *playerRepository) Create(ctx context.Context, p model.Player) (model.Player, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Player{}, err
	}
	row := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO players (player_name, api_player_id, first_name, last_name, date_of_birth, debut_year)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+playerColumns,
		p.Name, p.ExternalID, p.FirstName, p.LastName, formatDatePtr(p.DateOfBirth), p.DebutYear,
	)
	return scanPlayer(row)
}

var _ repository.PlayerRepository = (*playerRepository)(nil)
