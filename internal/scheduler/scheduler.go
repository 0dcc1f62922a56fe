// Package scheduler runs the provider season sync on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const trigger = "scheduled"

// Scheduler owns one cron job that syncs every configured season in turn.
type Scheduler struct {
	cron    *cron.Cron
	sync    service.SyncService
	seasons []int
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	running bool
	entry   cron.EntryID
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// New validates the schedule and registers the sync job. Overlapping runs are skipped.
func New(syncer service.SyncService, cfg config.IngestConfig, logger zerolog.Logger) (*Scheduler, error) {
	l := logger.With().Str("module", "scheduler").Logger()
	if cfg.Schedule == "" {
		return nil, errors.New("scheduler: empty schedule")
	}
	if len(cfg.Seasons) == 0 {
		return nil, errors.New("scheduler: no seasons configured")
	}

	cl := cronLogger{log: l}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sync:    syncer,
		seasons: append([]int(nil), cfg.Seasons...),
		timeout: time.Duration(cfg.JobTimeout) * time.Minute,
		log:     l,
	}
	id, err := s.cron.AddFunc(cfg.Schedule, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", cfg.Schedule, err)
	}
	s.entry = id
	return s, nil
}

// RunOnce syncs each configured season, bounded by the job timeout.
// A failing season is logged and the next one still runs.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = service.WithTrigger(ctx, trigger)

	for _, season := range s.seasons {
		report, err := s.sync.SyncSeason(ctx, season)
		if err != nil {
			s.log.Error().Err(err).Int("season", season).Msg("scheduled sync failed")
			if ctx.Err() != nil {
				return
			}
			continue
		}
		s.log.Info().Int("season", season).Int("ingested", report.GamesIngested).Int("failed", report.GamesFailed).Msg("scheduled sync done")
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.log.Info().Time("next_run", s.cron.Entry(s.entry).Next).Ints("seasons", s.seasons).Msg("scheduler started")
}

// Stop prevents new runs and waits for a running job until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with a sync still running")
		return ctx.Err()
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
