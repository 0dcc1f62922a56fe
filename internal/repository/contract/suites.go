// Package contract holds backend-agnostic test suites. Every repository implementation
// runs the same suites from its own _test.go with a factory that hands out a clean store.
package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
)

// Store is the full repository set of one backend, bound to an empty schema.
type Store struct {
	Tx        repository.TxManager
	Teams     repository.TeamRepository
	Venues    repository.VenueRepository
	Players   repository.PlayerRepository
	Games     repository.GameRepository
	Stats     repository.StatsRepository
	History   repository.TeamHistoryRepository
	Query     repository.QueryRepository
	Integrity repository.IntegrityRepository
	Pinger    repository.Pinger
}

type StoreFactory func(t *testing.T) (Store, func())

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func i64(v int64) *int64 { return &v }
func ip(v int) *int      { return &v }

// fixture seeds two teams, a venue and one game between them.
type fixture struct {
	home, away, venue int64
	game              model.Game
}

func seed(t *testing.T, s Store) fixture {
	t.Helper()
	ctx := context.Background()
	home, err := s.Teams.Create(ctx, model.Team{Name: "Collingwood", ExternalID: i64(10), IsActive: true})
	if err != nil {
		t.Fatalf("seed home: %v", err)
	}
	away, err := s.Teams.Create(ctx, model.Team{Name: "Carlton", ExternalID: i64(11), IsActive: true})
	if err != nil {
		t.Fatalf("seed away: %v", err)
	}
	venue, err := s.Venues.Create(ctx, "MCG")
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	game, err := s.Games.Create(ctx, model.Game{
		ExternalID: i64(500), SeasonYear: 2024, RoundNumber: ip(1), GameType: "regular",
		Date: date("2024-03-14"), VenueID: venue.ID, HomeTeamID: home.ID, AwayTeamID: away.ID,
	})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	return fixture{home: home.ID, away: away.ID, venue: venue.ID, game: game}
}

func RunTeamRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("create_and_find", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := s.Teams.Create(ctx, model.Team{Name: "Geelong", IsActive: true})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ExternalID != nil || !created.IsActive {
			t.Fatalf("unexpected created row: %+v", created)
		}
		got, err := s.Teams.FindByName(ctx, "Geelong")
		if err != nil || got.ID != created.ID {
			t.Fatalf("find by name: %+v %v", got, err)
		}
		if _, err := s.Teams.FindByExternalID(ctx, 77); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("backfill_external_id", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := s.Teams.Create(ctx, model.Team{Name: "Sydney", IsActive: true})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Teams.SetExternalID(ctx, created.ID, 42); err != nil {
			t.Fatalf("set external id: %v", err)
		}
		got, err := s.Teams.FindByExternalID(ctx, 42)
		if err != nil || got.ID != created.ID {
			t.Fatalf("find by external id: %+v %v", got, err)
		}
		if err := s.Teams.SetExternalID(ctx, 999999, 43); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for missing row, got %v", err)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := s.Teams.Create(ctx, model.Team{Name: "Essendon", IsActive: true}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := s.Teams.Create(ctx, model.Team{Name: "Essendon", IsActive: true})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func RunVenueRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("create_and_find", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := s.Venues.FindByName(ctx, "Gabba"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		v, err := s.Venues.Create(ctx, "Gabba")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Venues.FindByName(ctx, "Gabba")
		if err != nil || got != v {
			t.Fatalf("find: %+v %v", got, err)
		}
	})
}

func RunPlayerRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("create_find_rename", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		dob := date("1988-04-18")
		first := "Scott"
		created, err := s.Players.Create(ctx, model.Player{
			Name: "Scott Pendlebury", ExternalID: i64(1001), FirstName: &first, DateOfBirth: &dob, DebutYear: ip(2006),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.DateOfBirth == nil || !created.DateOfBirth.Equal(dob) {
			t.Fatalf("date of birth not round-tripped: %+v", created.DateOfBirth)
		}
		if created.LastName != nil {
			t.Fatalf("expected nil last name, got %v", *created.LastName)
		}
		if err := s.Players.UpdateName(ctx, created.ID, "S. Pendlebury"); err != nil {
			t.Fatalf("rename: %v", err)
		}
		got, err := s.Players.FindByExternalID(ctx, 1001)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Name != "S. Pendlebury" || *got.ExternalID != 1001 || *got.DebutYear != 2006 {
			t.Fatalf("unexpected player: %+v", got)
		}
	})

	t.Run("external_id_unique", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := s.Players.Create(ctx, model.Player{Name: "A", ExternalID: i64(5)}); err != nil {
			t.Fatalf("create: %v", err)
		}
		_, err := s.Players.Create(ctx, model.Player{Name: "B", ExternalID: i64(5)})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("find_other_by_name", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, p := range []model.Player{
			{Name: "Josh Kennedy", ExternalID: i64(1)},
			{Name: "Josh Kennedy", ExternalID: i64(2)},
			{Name: "Josh Kennedy"},
			{Name: "Other", ExternalID: i64(3)},
		} {
			if _, err := s.Players.Create(ctx, p); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		others, err := s.Players.FindOtherByName(ctx, "Josh Kennedy", 2)
		if err != nil {
			t.Fatalf("find other: %v", err)
		}
		if len(others) != 1 || *others[0].ExternalID != 1 {
			t.Fatalf("unexpected others: %+v", others)
		}
	})
}

func RunGameRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("find_by_external_and_natural_key", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)

		got, err := s.Games.FindByExternalID(ctx, 500)
		if err != nil || got.ID != fx.game.ID {
			t.Fatalf("find by external id: %+v %v", got, err)
		}
		if !got.Date.Equal(date("2024-03-14")) || got.RoundNumber == nil || *got.RoundNumber != 1 {
			t.Fatalf("unexpected game: %+v", got)
		}

		key := model.GameKey{SeasonYear: 2024, RoundNumber: ip(1), Date: date("2024-03-14"), HomeTeamID: fx.home, AwayTeamID: fx.away}
		byKey, err := s.Games.FindByNaturalKey(ctx, key)
		if err != nil || byKey.ID != fx.game.ID {
			t.Fatalf("find by natural key: %+v %v", byKey, err)
		}

		key.RoundNumber = nil
		if _, err := s.Games.FindByNaturalKey(ctx, key); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("nil round must not match round 1, got %v", err)
		}
	})

	t.Run("null_round_matches_null_round", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		final, err := s.Games.Create(ctx, model.Game{
			SeasonYear: 2024, GameType: "finals", Date: date("2024-09-28"),
			VenueID: fx.venue, HomeTeamID: fx.home, AwayTeamID: fx.away,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Games.FindByNaturalKey(ctx, model.GameKey{SeasonYear: 2024, Date: date("2024-09-28"), HomeTeamID: fx.home, AwayTeamID: fx.away})
		if err != nil || got.ID != final.ID {
			t.Fatalf("find: %+v %v", got, err)
		}
		if err := s.Games.SetExternalID(ctx, final.ID, 900); err != nil {
			t.Fatalf("backfill: %v", err)
		}
		byExt, err := s.Games.GetByID(ctx, final.ID)
		if err != nil || byExt.ExternalID == nil || *byExt.ExternalID != 900 {
			t.Fatalf("backfill not visible: %+v %v", byExt, err)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		if _, err := s.Games.GetByID(context.Background(), 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunStatsRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("create_find_unique", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, err := s.Players.Create(ctx, model.Player{Name: "Nick Daicos", ExternalID: i64(2001)})
		if err != nil {
			t.Fatalf("player: %v", err)
		}
		line := model.PlayerGameStat{
			PlayerID: p.ID, GameID: fx.game.ID, TeamID: fx.home, OpponentTeamID: fx.away, VenueID: fx.venue,
			Location: model.SideHome, Disposals: ip(31), Goals: ip(2),
		}
		created, err := s.Stats.Create(ctx, line)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		found, err := s.Stats.FindByPlayerGame(ctx, p.ID, fx.game.ID)
		if err != nil || found.ID != created.ID || *found.Disposals != 31 || found.Location != model.SideHome {
			t.Fatalf("find: %+v %v", found, err)
		}
		if _, err := s.Stats.Create(ctx, line); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists on second insert, got %v", err)
		}
	})

	t.Run("last_for_player_uses_highest_game_id", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, _ := s.Players.Create(ctx, model.Player{Name: "P", ExternalID: i64(1)})
		if _, err := s.Stats.LastForPlayer(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		// later id, earlier date
		g2, err := s.Games.Create(ctx, model.Game{SeasonYear: 2024, RoundNumber: ip(0), GameType: "regular",
			Date: date("2024-03-07"), VenueID: fx.venue, HomeTeamID: fx.away, AwayTeamID: fx.home})
		if err != nil {
			t.Fatalf("game: %v", err)
		}
		for _, g := range []struct {
			id, team, opp int64
		}{{fx.game.ID, fx.home, fx.away}, {g2.ID, fx.away, fx.home}} {
			if _, err := s.Stats.Create(ctx, model.PlayerGameStat{PlayerID: p.ID, GameID: g.id, TeamID: g.team,
				OpponentTeamID: g.opp, VenueID: fx.venue, Location: model.SideHome}); err != nil {
				t.Fatalf("stat: %v", err)
			}
		}
		last, err := s.Stats.LastForPlayer(ctx, p.ID)
		if err != nil {
			t.Fatalf("last: %v", err)
		}
		if last.GameID != g2.ID || last.TeamID != fx.away || !last.GameDate.Equal(date("2024-03-07")) {
			t.Fatalf("unexpected last appearance: %+v", last)
		}
	})

	t.Run("recompute_days_since_last_game", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, _ := s.Players.Create(ctx, model.Player{Name: "P", ExternalID: i64(1)})
		g2, err := s.Games.Create(ctx, model.Game{SeasonYear: 2024, RoundNumber: ip(2), GameType: "regular",
			Date: date("2024-03-21"), VenueID: fx.venue, HomeTeamID: fx.away, AwayTeamID: fx.home})
		if err != nil {
			t.Fatalf("game: %v", err)
		}
		for _, gid := range []int64{fx.game.ID, g2.ID} {
			if _, err := s.Stats.Create(ctx, model.PlayerGameStat{PlayerID: p.ID, GameID: gid, TeamID: fx.home,
				OpponentTeamID: fx.away, VenueID: fx.venue, Location: model.SideAway}); err != nil {
				t.Fatalf("stat: %v", err)
			}
		}
		n, err := s.Stats.RecomputeDaysSinceLastGame(ctx)
		if err != nil {
			t.Fatalf("recompute: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 rows touched, got %d", n)
		}
		first, _ := s.Stats.FindByPlayerGame(ctx, p.ID, fx.game.ID)
		second, _ := s.Stats.FindByPlayerGame(ctx, p.ID, g2.ID)
		if first.DaysSinceLastGame != nil {
			t.Fatalf("first game should have no gap, got %d", *first.DaysSinceLastGame)
		}
		if second.DaysSinceLastGame == nil || *second.DaysSinceLastGame != 7 {
			t.Fatalf("expected 7 days, got %v", second.DaysSinceLastGame)
		}
	})
}

func RunTeamHistoryRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("open_close_current", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, _ := s.Players.Create(ctx, model.Player{Name: "P", ExternalID: i64(1)})

		if _, err := s.History.Current(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.History.Open(ctx, p.ID, fx.home, date("2024-03-14")); err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := s.History.CloseCurrent(ctx, p.ID, date("2025-03-10")); err != nil {
			t.Fatalf("close: %v", err)
		}
		if _, err := s.History.Open(ctx, p.ID, fx.away, date("2025-03-10")); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		cur, err := s.History.Current(ctx, p.ID)
		if err != nil || cur.TeamID != fx.away || !cur.IsCurrent || cur.EndDate != nil {
			t.Fatalf("current: %+v %v", cur, err)
		}
		all, err := s.History.ListByPlayer(ctx, p.ID)
		if err != nil || len(all) != 2 {
			t.Fatalf("list: %+v %v", all, err)
		}
		if all[0].IsCurrent || all[0].EndDate == nil || !all[0].EndDate.Equal(date("2025-03-10")) {
			t.Fatalf("first interval not closed: %+v", all[0])
		}
	})

	t.Run("second_open_interval_rejected", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, _ := s.Players.Create(ctx, model.Player{Name: "P", ExternalID: i64(1)})
		if _, err := s.History.Open(ctx, p.ID, fx.home, date("2024-03-14")); err != nil {
			t.Fatalf("open: %v", err)
		}
		_, err := s.History.Open(ctx, p.ID, fx.away, date("2024-03-21"))
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func RunQueryRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("resolve_and_tally", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		p, _ := s.Players.Create(ctx, model.Player{Name: "Scott Pendlebury", ExternalID: i64(1)})

		values := []*int{ip(25), ip(19), ip(20), nil, ip(30)}
		for i, v := range values {
			g, err := s.Games.Create(ctx, model.Game{SeasonYear: 2023, RoundNumber: ip(i + 1), GameType: "regular",
				Date: date("2023-03-16").AddDate(0, 0, 7*i), VenueID: fx.venue, HomeTeamID: fx.home, AwayTeamID: fx.away})
			if err != nil {
				t.Fatalf("game: %v", err)
			}
			if _, err := s.Stats.Create(ctx, model.PlayerGameStat{PlayerID: p.ID, GameID: g.ID, TeamID: fx.home,
				OpponentTeamID: fx.away, VenueID: fx.venue, Location: model.SideHome, Disposals: v, Goals: ip(i % 3)}); err != nil {
				t.Fatalf("stat: %v", err)
			}
		}

		id, err := s.Query.ResolvePlayerID(ctx, "Scott Pendlebury")
		if err != nil || id != p.ID {
			t.Fatalf("resolve: %d %v", id, err)
		}
		if _, err := s.Query.ResolvePlayerID(ctx, "Nonexistent Player"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		tally, err := s.Query.TallyStat(ctx, p.ID, model.StatDisposals, 19.5)
		if err != nil {
			t.Fatalf("tally: %v", err)
		}
		if tally != (model.StatTally{Total: 4, Above: 3, Equal: 0}) {
			t.Fatalf("unexpected disposals tally: %+v", tally)
		}
		tally, err = s.Query.TallyStat(ctx, p.ID, model.StatDisposals, 20)
		if err != nil {
			t.Fatalf("tally: %v", err)
		}
		if tally != (model.StatTally{Total: 4, Above: 2, Equal: 1}) {
			t.Fatalf("unexpected boundary tally: %+v", tally)
		}
		// goals are 0,1,2,0,1
		tally, err = s.Query.TallyStat(ctx, p.ID, model.StatGoals, 1)
		if err != nil {
			t.Fatalf("tally goals: %v", err)
		}
		if tally != (model.StatTally{Total: 5, Above: 1, Equal: 2}) {
			t.Fatalf("unexpected goals tally: %+v", tally)
		}
	})

	t.Run("player_without_stats", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		p, _ := s.Players.Create(ctx, model.Player{Name: "Rookie", ExternalID: i64(9)})
		// the view only carries players with stat rows
		if _, err := s.Query.ResolvePlayerID(ctx, "Rookie"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		tally, err := s.Query.TallyStat(ctx, p.ID, model.StatGoals, 0.5)
		if err != nil || tally != (model.StatTally{}) {
			t.Fatalf("expected empty tally, got %+v %v", tally, err)
		}
	})
}

func RunIntegrityRepositoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("duplicates_and_checks", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		fx := seed(t, s)
		for _, p := range []model.Player{
			{Name: "Josh Kennedy", ExternalID: i64(20)},
			{Name: "Josh Kennedy", ExternalID: i64(10)},
			{Name: "Solo", ExternalID: i64(30)},
		} {
			if _, err := s.Players.Create(ctx, p); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		dups, err := s.Integrity.FindPotentialDuplicates(ctx)
		if err != nil {
			t.Fatalf("duplicates: %v", err)
		}
		if len(dups) != 1 || dups[0].Name != "Josh Kennedy" || dups[0].DistinctIDs != 2 || dups[0].TotalRecords != 2 {
			t.Fatalf("unexpected duplicates: %+v", dups)
		}
		if dups[0].ExternalIDs[0] != 10 || dups[0].ExternalIDs[1] != 20 {
			t.Fatalf("external ids not sorted: %v", dups[0].ExternalIDs)
		}

		solo, _ := s.Players.FindByExternalID(ctx, 30)
		// stat without any history row trips the current-team rule
		if _, err := s.Stats.Create(ctx, model.PlayerGameStat{PlayerID: solo.ID, GameID: fx.game.ID, TeamID: fx.home,
			OpponentTeamID: fx.away, VenueID: fx.venue, Location: model.SideHome}); err != nil {
			t.Fatalf("stat: %v", err)
		}
		checks, err := s.Integrity.RunChecks(ctx)
		if err != nil {
			t.Fatalf("checks: %v", err)
		}
		if len(checks) != len(repository.IntegrityRules) {
			t.Fatalf("expected %d checks, got %d", len(repository.IntegrityRules), len(checks))
		}
		for _, c := range checks {
			want := 0
			if c.Name == "player_with_stats_but_no_current_team" {
				want = 1
			}
			if c.Violations != want {
				t.Fatalf("check %s: want %d violations, got %d", c.Name, want, c.Violations)
			}
		}
	})
}

func RunTxManagerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("commit", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.Teams.Create(ctx, model.Team{Name: "TxTeam", IsActive: true})
			return err
		})
		if err != nil {
			t.Fatalf("tx commit err: %v", err)
		}
		if _, err := s.Teams.FindByName(ctx, "TxTeam"); err != nil {
			t.Fatalf("row not committed: %v", err)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		boom := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.Teams.Create(ctx, model.Team{Name: "Ghost", IsActive: true}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := s.Teams.FindByName(ctx, "Ghost"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected rollback, got %v", err)
		}
	})

	t.Run("nested_joins_outer", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		boom := errors.New("outer failed")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
				_, err := s.Venues.Create(ctx, "Inner")
				return err
			}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected outer error, got %v", err)
		}
		if _, err := s.Venues.FindByName(ctx, "Inner"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("inner write should roll back with the outer tx, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		if err := s.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("ping err: %v", err)
		}
	})
}

// RunAll runs every suite against one backend.
func RunAll(t *testing.T, makeStore StoreFactory) {
	t.Run("teams", func(t *testing.T) { RunTeamRepositoryContract(t, makeStore) })
	t.Run("venues", func(t *testing.T) { RunVenueRepositoryContract(t, makeStore) })
	t.Run("players", func(t *testing.T) { RunPlayerRepositoryContract(t, makeStore) })
	t.Run("games", func(t *testing.T) { RunGameRepositoryContract(t, makeStore) })
	t.Run("stats", func(t *testing.T) { RunStatsRepositoryContract(t, makeStore) })
	t.Run("history", func(t *testing.T) { RunTeamHistoryRepositoryContract(t, makeStore) })
	t.Run("query", func(t *testing.T) { RunQueryRepositoryContract(t, makeStore) })
	t.Run("integrity", func(t *testing.T) { RunIntegrityRepositoryContract(t, makeStore) })
	t.Run("tx", func(t *testing.T) { RunTxManagerContract(t, makeStore) })
	t.Run("pinger", func(t *testing.T) { RunPingerContract(t, makeStore) })
}
