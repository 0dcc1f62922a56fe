package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type venueRepository struct{ db *sql.DB }

func NewVenueRepository(db *sql.DB) repository.VenueRepository {
	return &venueRepository{db: db}
}

func (r *venueRepository) FindByName(ctx context.Context, name string) (model.Venue, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Venue{}, err
	}
	var out model.Venue
	err := getQ(ctx, r.db).QueryRowContext(ctx,
		`SELECT venue_id, venue_name FROM venues WHERE venue_name = ?`, name,
	).Scan(&out.ID, &out.Name)
	if err != nil {
		return model.Venue{}, mapErr(err)
	}
	return out, nil
}

func (r *venueRepository) Create(ctx context.Context, name string) (model.Venue, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Venue{}, err
	}
	var out model.Venue
	err := getQ(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO venues (venue_name) VALUES (?) RETURNING venue_id, venue_name`, name,
	).Scan(&out.ID, &out.Name)
	if err != nil {
		return model.Venue{}, mapErr(err)
	}
	return out, nil
}

var _ repository.VenueRepository = (*venueRepository)(nil)
