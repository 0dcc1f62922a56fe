package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type playerRepository struct{ pool *pgxpool.Pool }

func NewPlayerRepository(pool *pgxpool.Pool) repository.PlayerRepository {
	return &playerRepository{pool: pool}
}

const playerColumns = `player_id, player_name, api_player_id, first_name, last_name, date_of_birth, debut_year`

func scanPlayer(row pgx.Row) (model.Player, error) {
	var out model.Player
	err := row.Scan(&out.ID, &out.Name, &out.ExternalID, &out.FirstName, &out.LastName, &out.DateOfBirth, &out.DebutYear)
	if err != nil {
		return model.Player{}, mapErr(err)
	}
	return out, nil
}

func (r *playerRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	return scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE api_player_id = $1`, externalID))
}

func (r *playerRepository) FindOtherByName(ctx context.Context, name string, externalID int64) ([]model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE player_name = $1 AND api_player_id IS NOT NULL AND api_player_id <> $2
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
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE players SET player_name = $1 WHERE player_id = $2`, name, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(tag)
}

func (r *playerRepository) Create(ctx context.Context, p model.Player) (model.Player, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Player{}, err
	}
	return scanPlayer(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO players (player_name, api_player_id, first_name, last_name, date_of_birth, debut_year)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+playerColumns,
		p.Name, p.ExternalID, p.FirstName, p.LastName, p.DateOfBirth, p.DebutYear,
	))
}

var _ repository.PlayerRepository = (*playerRepository)(nil)
