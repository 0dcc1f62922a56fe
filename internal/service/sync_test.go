package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/provider/apisports"
	"github.com/maxviazov/afl-stats-service/internal/service"
)

type fakeProvider struct {
	games        []apisports.Game
	stats        map[int64][]apisports.TeamPlayerStats
	players      map[int64]apisports.Player
	playerCalls  int
	failStatsFor int64
}

func (f *fakeProvider) Games(context.Context, int) ([]apisports.Game, error) { return f.games, nil }

func (f *fakeProvider) Game(_ context.Context, id int64) (apisports.Game, error) {
	for _, g := range f.games {
		if g.Game.ID == id {
			return g, nil
		}
	}
	return apisports.Game{}, apisports.ErrNotFound
}

func (f *fakeProvider) GamePlayerStats(_ context.Context, gameID int64) ([]apisports.TeamPlayerStats, error) {
	if gameID == f.failStatsFor {
		return nil, fmt.Errorf("%w: upstream 500", apisports.ErrProvider)
	}
	return f.stats[gameID], nil
}

func (f *fakeProvider) Player(_ context.Context, id int64) (apisports.Player, error) {
	f.playerCalls++
	p, ok := f.players[id]
	if !ok {
		return apisports.Player{}, apisports.ErrNotFound
	}
	return p, nil
}

var _ service.StatsProvider = (*fakeProvider)(nil)

func apiGame(id int64, week, day, status string, home, away int64) apisports.Game {
	return apisports.Game{
		Game: apisports.GameInfo{
			ID: id, Week: week, Venue: "MCG",
			Date:   apisports.GameDate{Date: "2024-" + day, Time: "19:40"},
			Status: apisports.GameStatus{Short: status},
		},
		League: apisports.LeagueRef{ID: 1, Season: 2024},
		Teams: apisports.GameTeams{
			Home: apisports.TeamRef{ID: home, Name: fmt.Sprintf("Team %d", home)},
			Away: apisports.TeamRef{ID: away, Name: fmt.Sprintf("Team %d", away)},
		},
	}
}

func line(playerID int64, disposals int) apisports.PlayerStats {
	return apisports.PlayerStats{Player: apisports.PlayerRef{ID: playerID}, Disposals: intp(disposals), Goals: apisports.GoalStats{Total: intp(1)}}
}

func newSyncFixture() *fakeProvider {
	return &fakeProvider{
		games: []apisports.Game{
			apiGame(1, "Round 1", "03-14", "FT", 10, 20),
			apiGame(2, "Round 2", "03-21", "FT", 20, 10),
			apiGame(3, "Round 3", "03-28", "NS", 10, 20),
		},
		stats: map[int64][]apisports.TeamPlayerStats{
			1: {{Team: apisports.TeamRef{ID: 10}, Players: []apisports.PlayerStats{line(100, 25)}}, {Team: apisports.TeamRef{ID: 20}, Players: []apisports.PlayerStats{line(200, 18)}}},
			2: {{Team: apisports.TeamRef{ID: 20}, Players: []apisports.PlayerStats{line(200, 22)}}, {Team: apisports.TeamRef{ID: 10}, Players: []apisports.PlayerStats{line(100, 30)}}},
		},
		players: map[int64]apisports.Player{100: {ID: 100, Name: "Nick Daicos"}, 200: {ID: 200, Name: "Patrick Cripps"}},
	}
}

func newSync(p service.StatsProvider) (service.SyncService, *memStore, *metrics.Metrics) {
	store := newMemStore()
	m := metrics.New()
	logger := zerolog.New(io.Discard)
	ingest := service.NewIngestionService(store.repos(), m, logger)
	return service.NewSyncService(p, ingest, m, logger), store, m
}

func TestSyncSeason(t *testing.T) {
	p := newSyncFixture()
	svc, store, m := newSync(p)

	report, err := svc.SyncSeason(service.WithTrigger(context.Background(), "scheduled"), 2024)
	require.NoError(t, err)
	assert.Equal(t, service.SyncReport{Season: 2024, GamesSeen: 3, GamesIngested: 2, GamesSkipped: 1, StatLines: 4, DaysUpdated: 4}, report)
	assert.Len(t, store.games, 2)
	assert.Len(t, store.players, 2)
	assert.Equal(t, 2, p.playerCalls, "player profiles are fetched once per run")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SyncRuns.WithLabelValues("scheduled", "ok")))
}

func TestSyncSeason_FailedGameDoesNotStopRun(t *testing.T) {
	p := newSyncFixture()
	p.failStatsFor = 1
	svc, store, m := newSync(p)

	report, err := svc.SyncSeason(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GamesFailed)
	assert.Equal(t, 1, report.GamesIngested)
	assert.Len(t, store.games, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SyncRuns.WithLabelValues("manual", "partial")))
}

func TestSyncSeason_RecomputeFailure(t *testing.T) {
	svc, store, _ := newSync(newSyncFixture())
	store.failOn = "stats.recompute"
	_, err := svc.SyncSeason(context.Background(), 2024)
	assert.ErrorIs(t, err, errBoom)
}

func TestSyncSeason_InvalidSeason(t *testing.T) {
	svc, _, _ := newSync(newSyncFixture())
	_, err := svc.SyncSeason(context.Background(), 24)
	assert.True(t, serviceErrIsInvalid(err))
}

func TestSyncGame(t *testing.T) {
	t.Run("finished", func(t *testing.T) {
		svc, store, _ := newSync(newSyncFixture())
		report, err := svc.SyncGame(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 1, report.GamesIngested)
		assert.Equal(t, 2, report.StatLines)
		assert.Len(t, store.games, 1)
	})
	t.Run("not finished is skipped", func(t *testing.T) {
		svc, store, _ := newSync(newSyncFixture())
		report, err := svc.SyncGame(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, 1, report.GamesSkipped)
		assert.Empty(t, store.games)
	})
	t.Run("unknown player fails", func(t *testing.T) {
		p := newSyncFixture()
		delete(p.players, 200)
		svc, _, _ := newSync(p)
		_, err := svc.SyncGame(context.Background(), 1)
		assert.ErrorIs(t, err, apisports.ErrNotFound)
	})
	t.Run("unknown game", func(t *testing.T) {
		svc, _, _ := newSync(newSyncFixture())
		_, err := svc.SyncGame(context.Background(), 42)
		assert.ErrorIs(t, err, apisports.ErrNotFound)
	})
}
