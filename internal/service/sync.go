package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/provider/apisports"
	"github.com/rs/zerolog"
)

// StatsProvider is the slice of the upstream API the sync needs.
type StatsProvider interface {
	Games(ctx context.Context, season int) ([]apisports.Game, error)
	Game(ctx context.Context, id int64) (apisports.Game, error)
	GamePlayerStats(ctx context.Context, gameID int64) ([]apisports.TeamPlayerStats, error)
	Player(ctx context.Context, id int64) (apisports.Player, error)
}

type triggerKey struct{}

// WithTrigger labels sync runs started under ctx, e.g. "scheduled" or "cli".
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func triggerFrom(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok && t != "" {
		return t
	}
	return "manual"
}

type syncService struct {
	provider StatsProvider
	ingest   IngestionService
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewSyncService(p StatsProvider, ingest IngestionService, m *metrics.Metrics, logger zerolog.Logger) SyncService {
	l := logger.With().Str("module", "service").Str("component", "sync").Logger()
	return &syncService{provider: p, ingest: ingest, metrics: m, log: l}
}

// SyncSeason ingests every finished game of the season. A failed game is logged and
// counted; the run carries on and finishes with a days-since-last-game recompute.
func (s *syncService) SyncSeason(ctx context.Context, season int) (SyncReport, error) {
	start := time.Now()
	report := SyncReport{Season: season}
	if !isValidSeason(season) {
		return report, invalidField("season", "must be a valid season year")
	}
	log := s.log.With().Int("season", season).Str("trigger", triggerFrom(ctx)).Logger()

	games, err := s.provider.Games(ctx, season)
	if err != nil {
		s.finish(ctx, "failed", start)
		return report, fmt.Errorf("list games: %w", err)
	}
	report.GamesSeen = len(games)

	// profiles are memoized for this run only
	players := make(map[int64]apisports.Player)
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			s.finish(ctx, "cancelled", start)
			return report, err
		}
		if !g.Finished() {
			report.GamesSkipped++
			continue
		}
		lines, err := s.syncOne(ctx, g, players)
		if err != nil {
			report.GamesFailed++
			log.Error().Err(err).Int64("api_game_id", g.Game.ID).Msg("game sync failed")
			continue
		}
		report.GamesIngested++
		report.StatLines += lines
	}

	report.DaysUpdated, err = s.ingest.RecomputeDaysSinceLastGame(ctx)
	if err != nil {
		s.finish(ctx, "failed", start)
		return report, err
	}

	status := "ok"
	if report.GamesFailed > 0 {
		status = "partial"
	}
	s.finish(ctx, status, start)
	log.Info().Dur("took", time.Since(start)).Interface("report", report).Msg("season sync finished")
	return report, nil
}

// SyncGame ingests a single game by provider id. Unlike a season run, a failure is returned.
func (s *syncService) SyncGame(ctx context.Context, externalID int64) (SyncReport, error) {
	start := time.Now()
	var report SyncReport
	if externalID <= 0 {
		return report, invalidField("id", "must be > 0")
	}

	g, err := s.provider.Game(ctx, externalID)
	if err != nil {
		s.finish(ctx, "failed", start)
		return report, fmt.Errorf("fetch game %d: %w", externalID, err)
	}
	report.Season = g.League.Season
	report.GamesSeen = 1
	if !g.Finished() {
		report.GamesSkipped = 1
		s.log.Info().Int64("api_game_id", externalID).Str("status", g.Game.Status.Short).Msg("game not finished, skipped")
		s.finish(ctx, "ok", start)
		return report, nil
	}

	lines, err := s.syncOne(ctx, g, make(map[int64]apisports.Player))
	if err != nil {
		report.GamesFailed = 1
		s.finish(ctx, "failed", start)
		return report, err
	}
	report.GamesIngested = 1
	report.StatLines = lines

	report.DaysUpdated, err = s.ingest.RecomputeDaysSinceLastGame(ctx)
	if err != nil {
		s.finish(ctx, "failed", start)
		return report, err
	}
	s.finish(ctx, "ok", start)
	return report, nil
}

func (s *syncService) syncOne(ctx context.Context, g apisports.Game, players map[int64]apisports.Player) (int, error) {
	stats, err := s.provider.GamePlayerStats(ctx, g.Game.ID)
	if err != nil {
		return 0, fmt.Errorf("player stats: %w", err)
	}
	for _, id := range apisports.PlayerIDs(stats) {
		if _, ok := players[id]; ok {
			continue
		}
		p, err := s.provider.Player(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("player %d: %w", id, err)
		}
		players[id] = p
	}

	bundle, err := apisports.BuildBundle(g, stats, players)
	if err != nil {
		return 0, err
	}
	res, err := s.ingest.IngestGame(ctx, bundle)
	if err != nil {
		return 0, err
	}
	return len(res.StatIDs), nil
}

func (s *syncService) finish(ctx context.Context, status string, start time.Time) {
	s.metrics.RecordSync(triggerFrom(ctx), status, time.Since(start))
}
