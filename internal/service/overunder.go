package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/rs/zerolog"
)

type overUnderService struct {
	query   repository.QueryRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewOverUnderService(query repository.QueryRepository, m *metrics.Metrics, logger zerolog.Logger) OverUnderService {
	l := logger.With().Str("module", "service").Str("component", "overunder").Logger()
	return &overUnderService{query: query, metrics: m, log: l}
}

// Search validates the query, resolves a name to a player id when needed and partitions the tally.
func (s *overUnderService) Search(ctx context.Context, q OverUnderQuery) (model.OverUnder, error) {
	start := time.Now()

	var name string
	if q.PlayerName != nil {
		name = strings.TrimSpace(*q.PlayerName)
	}
	hasID, hasName := q.PlayerID != nil, name != ""

	var ferrs []FieldError
	switch {
	case hasID && hasName:
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "provide either player_id or player_name, not both"})
	case !hasID && !hasName:
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "provide either player_id or player_name"})
	case hasID && *q.PlayerID <= 0:
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "must be > 0"})
	}
	stat, ok := model.ParseStat(q.Stat)
	if !ok {
		ferrs = append(ferrs, FieldError{Field: "stat", Message: "must be one of disposals, goals"})
	}
	if q.Threshold == nil {
		ferrs = append(ferrs, FieldError{Field: "threshold", Message: "is required"})
	} else if math.IsNaN(*q.Threshold) || math.IsInf(*q.Threshold, 0) {
		ferrs = append(ferrs, FieldError{Field: "threshold", Message: "must be a finite number"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("over/under validation failed")
		s.metrics.RecordQuery("invalid", "invalid_input", time.Since(start))
		return model.OverUnder{}, err
	}

	out, err := s.search(ctx, hasID, q, name, stat)
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, repository.ErrNotFound):
			result = "not_found"
			s.log.Debug().Str("player_name", name).Msg("player not found")
		case errors.Is(err, repository.ErrStoreUnavailable):
			result = "store_unavailable"
			s.log.Error().Err(err).Msg("stats store unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			result = "timeout"
			s.log.Warn().Err(err).Str("stat", stat.String()).Msg("over/under search timed out")
		default:
			s.log.Error().Err(err).Str("stat", stat.String()).Msg("over/under search failed")
		}
		s.metrics.RecordQuery(stat.String(), result, time.Since(start))
		return model.OverUnder{}, err
	}
	s.metrics.RecordQuery(stat.String(), "ok", time.Since(start))
	return out, nil
}

func (s *overUnderService) search(ctx context.Context, byID bool, q OverUnderQuery, name string, stat model.Stat) (model.OverUnder, error) {
	var playerID int64
	if byID {
		playerID = *q.PlayerID
	} else {
		id, err := s.query.ResolvePlayerID(ctx, name)
		if err != nil {
			return model.OverUnder{}, err
		}
		playerID = id
	}

	tally, err := s.query.TallyStat(ctx, playerID, stat, *q.Threshold)
	if err != nil {
		return model.OverUnder{}, err
	}
	out := model.Partition(tally, q.StrictOver)
	s.log.Debug().Int64("player_id", playerID).Str("stat", stat.String()).Float64("threshold", *q.Threshold).Bool("strict_over", q.StrictOver).Int("over", out.Over).Int("under", out.Under).Msg("over/under computed")
	return out, nil
}
