package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

type integrityRepository struct{ db *sql.DB }

func NewIntegrityRepository(db *sql.DB) repository.IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) FindPotentialDuplicates(ctx context.Context) ([]model.DuplicatePlayer, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).QueryContext(ctx, repository.DuplicatesSQL)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var raw []repository.DuplicateRow
	for rows.Next() {
		var (
			row repository.DuplicateRow
			dob sql.NullString
		)
		if err := rows.Scan(&row.Name, &row.PlayerID, &row.ExternalID, &dob); err != nil {
			return nil, mapErr(err)
		}
		row.DateOfBirth = strPtr(dob)
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return repository.FoldDuplicates(raw), nil
}

func (r *integrityRepository) RunChecks(ctx context.Context) ([]model.IntegrityCheck, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.db)
	out := make([]model.IntegrityCheck, 0, len(repository.IntegrityRules))
	for _, rule := range repository.IntegrityRules {
		var n int
		if err := exec.QueryRowContext(ctx, rule.CountSQL()).Scan(&n); err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", rule.Name, mapErr(err))
		}
		out = append(out, model.IntegrityCheck{Name: rule.Name, Violations: n})
	}
	return out, nil
}

var _ repository.IntegrityRepository = (*integrityRepository)(nil)
