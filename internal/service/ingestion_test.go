package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/service"
)

func newIngestion(t *testing.T) (service.IngestionService, *memStore, *metrics.Metrics) {
	t.Helper()
	store := newMemStore()
	m := metrics.New()
	return service.NewIngestionService(store.repos(), m, zerolog.New(io.Discard)), store, m
}

func TestGetOrCreateTeam(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newIngestion(t)

	id, err := svc.GetOrCreateTeam(ctx, model.TeamInput{Name: "  Collingwood "})
	require.NoError(t, err)
	assert.Equal(t, "Collingwood", store.teams[id].Name)
	assert.Nil(t, store.teams[id].ExternalID)
	assert.True(t, store.teams[id].IsActive)

	// name hit backfills the external id
	again, err := svc.GetOrCreateTeam(ctx, model.TeamInput{Name: "Collingwood", ExternalID: int64p(4)})
	require.NoError(t, err)
	assert.Equal(t, id, again)
	require.NotNil(t, store.teams[id].ExternalID)
	assert.Equal(t, int64(4), *store.teams[id].ExternalID)

	// external id hit wins over a different name
	byExt, err := svc.GetOrCreateTeam(ctx, model.TeamInput{Name: "Collingwood Magpies", ExternalID: int64p(4)})
	require.NoError(t, err)
	assert.Equal(t, id, byExt)
	assert.Len(t, store.teams, 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitiesResolved.WithLabelValues("team", metrics.OutcomeCreated)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitiesResolved.WithLabelValues("team", metrics.OutcomeBackfilled)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitiesResolved.WithLabelValues("team", metrics.OutcomeMatched)))
}

func TestGetOrCreateTeam_Validation(t *testing.T) {
	svc, _, _ := newIngestion(t)
	cases := []struct {
		name  string
		in    model.TeamInput
		field string
	}{
		{"blank name", model.TeamInput{Name: "   "}, "team_name"},
		{"zero external id", model.TeamInput{Name: "Geelong", ExternalID: int64p(0)}, "api_team_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetOrCreateTeam(context.Background(), tc.in)
			if !serviceErrIsInvalid(err) {
				t.Fatalf("want invalid input, got %v", err)
			}
			if !hasField(err, tc.field) {
				t.Fatalf("missing field error %s", tc.field)
			}
		})
	}
}

func TestGetOrCreateTeam_StoreErrorPropagates(t *testing.T) {
	svc, store, m := newIngestion(t)
	store.failOn = "team.create"
	_, err := svc.GetOrCreateTeam(context.Background(), model.TeamInput{Name: "Essendon"})
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, serviceErrIsInvalid(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitiesResolved.WithLabelValues("team", metrics.OutcomeFailed)))
}

func TestGetOrCreateVenue(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newIngestion(t)

	a, err := svc.GetOrCreateVenue(ctx, "MCG")
	require.NoError(t, err)
	b, err := svc.GetOrCreateVenue(ctx, " MCG")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, store.venues, 1)

	_, err = svc.GetOrCreateVenue(ctx, "")
	assert.True(t, serviceErrIsInvalid(err))
}

func TestGetOrCreatePlayer(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newIngestion(t)

	id, err := svc.GetOrCreatePlayer(ctx, model.PlayerInput{Name: "Scott Pendlebury", ExternalID: 100})
	require.NoError(t, err)

	t.Run("external id hit renames", func(t *testing.T) {
		again, err := svc.GetOrCreatePlayer(ctx, model.PlayerInput{Name: "Scott Pendlebury Jr", ExternalID: 100})
		require.NoError(t, err)
		assert.Equal(t, id, again)
		assert.Equal(t, "Scott Pendlebury Jr", store.players[id].Name)
	})

	t.Run("same name different id inserts and flags", func(t *testing.T) {
		first, err := svc.GetOrCreatePlayer(ctx, model.PlayerInput{Name: "Josh Kennedy", ExternalID: 1})
		require.NoError(t, err)
		second, err := svc.GetOrCreatePlayer(ctx, model.PlayerInput{Name: "Josh Kennedy", ExternalID: 2})
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.DuplicatePlayers))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.GetOrCreatePlayer(ctx, model.PlayerInput{Name: "", ExternalID: 0, DebutYear: intp(1500)})
		require.True(t, serviceErrIsInvalid(err))
		assert.True(t, hasField(err, "player_name"))
		assert.True(t, hasField(err, "api_player_id"))
		assert.True(t, hasField(err, "debut_year"))
	})
}

func TestGetOrCreateGame(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newIngestion(t)

	in := model.GameInput{
		SeasonYear: 2024, GameType: "finals", Date: date(2024, 9, 28),
		VenueID: 1, HomeTeamID: 2, AwayTeamID: 3,
	}
	id, err := svc.GetOrCreateGame(ctx, in)
	require.NoError(t, err)

	// NULL round matches NULL round; external id gets backfilled
	in.ExternalID = int64p(555)
	again, err := svc.GetOrCreateGame(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, int64(555), *store.games[id].ExternalID)

	// a different round is a different game
	in.ExternalID = nil
	in.RoundNumber = intp(0)
	other, err := svc.GetOrCreateGame(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	// external id hit short-circuits the natural key
	byExt, err := svc.GetOrCreateGame(ctx, model.GameInput{
		ExternalID: int64p(555), SeasonYear: 2024, GameType: "regular", Date: date(2024, 1, 1),
		VenueID: 9, HomeTeamID: 8, AwayTeamID: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, id, byExt)
}

func TestGetOrCreateGame_Validation(t *testing.T) {
	svc, _, _ := newIngestion(t)
	_, err := svc.GetOrCreateGame(context.Background(), model.GameInput{
		SeasonYear: 1700, GameType: "preseason", Time: strp("25:00"),
		VenueID: 0, HomeTeamID: 2, AwayTeamID: 2,
	})
	require.True(t, serviceErrIsInvalid(err))
	for _, f := range []string{"season_year", "game_type", "game_date", "game_time", "venue_id", "away_team_id"} {
		assert.True(t, hasField(err, f), f)
	}
}

// seedGame stores a game directly and returns its id.
func seedGame(t *testing.T, svc service.IngestionService, d int, home, away int64) int64 {
	t.Helper()
	id, err := svc.GetOrCreateGame(context.Background(), model.GameInput{
		SeasonYear: 2024, RoundNumber: intp(d), GameType: "regular", Date: date(2024, 3, d),
		VenueID: 1, HomeTeamID: home, AwayTeamID: away,
	})
	require.NoError(t, err)
	return id
}

func TestInsertPlayerStats_TeamHistory(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newIngestion(t)

	g1 := seedGame(t, svc, 1, 10, 20)
	g2 := seedGame(t, svc, 8, 10, 30)
	g3 := seedGame(t, svc, 15, 40, 10)
	const player = int64(77)

	line := func(game, team, opp int64) model.StatInput {
		return model.StatInput{PlayerID: player, GameID: game, TeamID: team, OpponentTeamID: opp, VenueID: 1, Location: model.SideHome, Disposals: intp(20)}
	}

	first, err := svc.InsertPlayerStats(ctx, line(g1, 10, 20))
	require.NoError(t, err)
	hist, _ := (*memHistory)(store).ListByPlayer(ctx, player)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(10), hist[0].TeamID)
	assert.Equal(t, date(2024, 3, 1), hist[0].StartDate)

	// same team: history untouched
	_, err = svc.InsertPlayerStats(ctx, line(g2, 10, 30))
	require.NoError(t, err)
	hist, _ = (*memHistory)(store).ListByPlayer(ctx, player)
	require.Len(t, hist, 1)

	// team change closes the old interval on the new game's date
	_, err = svc.InsertPlayerStats(ctx, line(g3, 40, 10))
	require.NoError(t, err)
	hist, _ = (*memHistory)(store).ListByPlayer(ctx, player)
	require.Len(t, hist, 2)
	assert.False(t, hist[0].IsCurrent)
	assert.Equal(t, date(2024, 3, 15), *hist[0].EndDate)
	assert.True(t, hist[1].IsCurrent)
	assert.Equal(t, int64(40), hist[1].TeamID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TeamChanges))

	// re-inserting an existing line returns its id and changes nothing
	statsBefore := len(store.stats)
	again, err := svc.InsertPlayerStats(ctx, line(g1, 99, 20))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, store.stats, statsBefore)
	hist, _ = (*memHistory)(store).ListByPlayer(ctx, player)
	assert.Len(t, hist, 2)
}

func TestInsertPlayerStats_OutOfOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newIngestion(t)

	later := seedGame(t, svc, 20, 10, 20)
	earlier := seedGame(t, svc, 5, 10, 30)

	_, err := svc.InsertPlayerStats(ctx, model.StatInput{PlayerID: 1, GameID: later, TeamID: 10, OpponentTeamID: 20, VenueID: 1, Location: model.SideHome})
	require.NoError(t, err)
	_, err = svc.InsertPlayerStats(ctx, model.StatInput{PlayerID: 1, GameID: earlier, TeamID: 10, OpponentTeamID: 30, VenueID: 1, Location: model.SideHome})
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutOfOrderIngests))
}

func TestInsertPlayerStats_Validation(t *testing.T) {
	svc, _, _ := newIngestion(t)
	cases := []struct {
		name  string
		in    model.StatInput
		field string
	}{
		{"bad ids", model.StatInput{Location: model.SideHome}, "player_id"},
		{"own opponent", model.StatInput{PlayerID: 1, GameID: 1, TeamID: 2, OpponentTeamID: 2, VenueID: 1, Location: model.SideHome}, "opponent_team_id"},
		{"bad location", model.StatInput{PlayerID: 1, GameID: 1, TeamID: 2, OpponentTeamID: 3, VenueID: 1, Location: "neutral"}, "location"},
		{"negative goals", model.StatInput{PlayerID: 1, GameID: 1, TeamID: 2, OpponentTeamID: 3, VenueID: 1, Location: model.SideAway, Goals: intp(-1)}, "goals"},
		{"missing game", model.StatInput{PlayerID: 1, GameID: 404, TeamID: 2, OpponentTeamID: 3, VenueID: 1, Location: model.SideAway}, "game_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.InsertPlayerStats(context.Background(), tc.in)
			if !serviceErrIsInvalid(err) {
				t.Fatalf("want invalid input, got %v", err)
			}
			if !hasField(err, tc.field) {
				t.Fatalf("missing field error %s", tc.field)
			}
		})
	}
}

func sampleBundle() model.GameBundle {
	return model.GameBundle{
		ExternalID:  int64p(9001),
		SeasonYear:  2024,
		RoundNumber: intp(3),
		GameType:    "regular",
		Date:        date(2024, 3, 28),
		Time:        strp("19:40"),
		Venue:       "MCG",
		Home:        model.TeamInput{Name: "Collingwood", ExternalID: int64p(4)},
		Away:        model.TeamInput{Name: "Carlton", ExternalID: int64p(2)},
		Lines: []model.PlayerLine{
			{Player: model.PlayerInput{Name: "Scott Pendlebury", ExternalID: 100}, Side: model.SideHome, Disposals: intp(31), Goals: intp(1)},
			{Player: model.PlayerInput{Name: "Patrick Cripps", ExternalID: 200}, Side: model.SideAway, Disposals: intp(28), Goals: intp(0)},
		},
	}
}

func TestIngestGame(t *testing.T) {
	ctx := context.Background()
	svc, store, m := newIngestion(t)

	res, err := svc.IngestGame(ctx, sampleBundle())
	require.NoError(t, err)
	require.Len(t, res.StatIDs, 2)

	home := store.stats[res.StatIDs[0]]
	assert.Equal(t, res.HomeTeamID, home.TeamID)
	assert.Equal(t, res.AwayTeamID, home.OpponentTeamID)
	assert.Equal(t, model.SideHome, home.Location)
	assert.Equal(t, "19:40", *home.GameTime)

	away := store.stats[res.StatIDs[1]]
	assert.Equal(t, res.AwayTeamID, away.TeamID)
	assert.Equal(t, res.HomeTeamID, away.OpponentTeamID)
	assert.Equal(t, model.SideAway, away.Location)

	// idempotent on replay
	again, err := svc.IngestGame(ctx, sampleBundle())
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.Len(t, store.stats, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.GamesIngested.WithLabelValues(metrics.OutcomeCreated)))
}

func TestIngestGame_FailureIsReported(t *testing.T) {
	svc, store, m := newIngestion(t)
	store.failOn = "stats.create"

	_, err := svc.IngestGame(context.Background(), sampleBundle())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), "line 0 stats")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GamesIngested.WithLabelValues(metrics.OutcomeFailed)))
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newIngestion(t)

	dups, err := svc.FindPotentialDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, "Josh Kennedy", dups[0].Name)

	checks, err := svc.CheckIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.True(t, checks[0].Passed())
	assert.False(t, checks[1].Passed())
}
