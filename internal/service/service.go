// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: entity resolution, stat ingestion, the over/under query and provider sync.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/afl-stats-service/internal/model"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInputError builds an aggregated validation error if any field errors are present.
func NewInvalidInputError(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

func invalidField(field, msg string) error {
	return NewInvalidInputError([]FieldError{{Field: field, Message: msg}})
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// IngestionService resolves natural keys to surrogate ids and records stat lines.
type IngestionService interface {
	GetOrCreateTeam(ctx context.Context, in model.TeamInput) (int64, error)
	GetOrCreateVenue(ctx context.Context, name string) (int64, error)
	GetOrCreatePlayer(ctx context.Context, in model.PlayerInput) (int64, error)
	GetOrCreateGame(ctx context.Context, in model.GameInput) (int64, error)
	InsertPlayerStats(ctx context.Context, in model.StatInput) (int64, error)
	// IngestGame resolves and writes a whole game in one transaction.
	IngestGame(ctx context.Context, b model.GameBundle) (model.GameIngestResult, error)
	RecomputeDaysSinceLastGame(ctx context.Context) (int64, error)
	FindPotentialDuplicates(ctx context.Context) ([]model.DuplicatePlayer, error)
	CheckIntegrity(ctx context.Context) ([]model.IntegrityCheck, error)
}

// OverUnderQuery carries the raw search parameters. Exactly one of PlayerID and PlayerName must be set.
type OverUnderQuery struct {
	PlayerID   *int64
	PlayerName *string
	Stat       string
	Threshold  *float64
	StrictOver bool
}

// OverUnderService answers how often a player went over or under a threshold.
type OverUnderService interface {
	Search(ctx context.Context, q OverUnderQuery) (model.OverUnder, error)
}

// SyncReport summarizes one provider sync run.
type SyncReport struct {
	Season        int   `json:"season,omitempty"`
	GamesSeen     int   `json:"games_seen"`
	GamesIngested int   `json:"games_ingested"`
	GamesSkipped  int   `json:"games_skipped"`
	GamesFailed   int   `json:"games_failed"`
	StatLines     int   `json:"stat_lines"`
	DaysUpdated   int64 `json:"days_updated"`
}

// SyncService pulls finished games from the provider and ingests them.
type SyncService interface {
	SyncSeason(ctx context.Context, season int) (SyncReport, error)
	SyncGame(ctx context.Context, externalID int64) (SyncReport, error)
}
