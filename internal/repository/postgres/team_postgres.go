package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type teamRepository struct{ pool *pgxpool.Pool }

func NewTeamRepository(pool *pgxpool.Pool) repository.TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `team_id, team_name, api_team_id, is_active`

func scanTeam(row pgx.Row) (model.Team, error) {
	var out model.Team
	if err := row.Scan(&out.ID, &out.Name, &out.ExternalID, &out.IsActive); err != nil {
		return model.Team{}, mapErr(err)
	}
	return out, nil
}

func (r *teamRepository) FindByExternalID(ctx context.Context, externalID int64) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	return scanTeam(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE api_team_id = $1`, externalID))
}

func (r *teamRepository) FindByName(ctx context.Context, name string) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	return scanTeam(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE team_name = $1`, name))
}

func (r *teamRepository) SetExternalID(ctx context.Context, id, externalID int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE teams SET api_team_id = $1 WHERE team_id = $2`, externalID, id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(tag)
}

func (r *teamRepository) Create(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	return scanTeam(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO teams (team_name, api_team_id, is_active) VALUES ($1, $2, $3)
		 RETURNING `+teamColumns,
		t.Name, t.ExternalID, t.IsActive,
	))
}

var _ repository.TeamRepository = (*teamRepository)(nil)

type venueRepository struct{ pool *pgxpool.Pool }

func NewVenueRepository(pool *pgxpool.Pool) repository.VenueRepository {
	return &venueRepository{pool: pool}
}

func (r *venueRepository) FindByName(ctx context.Context, name string) (model.Venue, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Venue{}, err
	}
	var out model.Venue
	err := getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT venue_id, venue_name FROM venues WHERE venue_name = $1`, name,
	).Scan(&out.ID, &out.Name)
	if err != nil {
		return model.Venue{}, mapErr(err)
	}
	return out, nil
}

func (r *venueRepository) Create(ctx context.Context, name string) (model.Venue, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Venue{}, err
	}
	var out model.Venue
	err := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO venues (venue_name) VALUES ($1) RETURNING venue_id, venue_name`, name,
	).Scan(&out.ID, &out.Name)
	if err != nil {
		return model.Venue{}, mapErr(err)
	}
	return out, nil
}

var _ repository.VenueRepository = (*venueRepository)(nil)
