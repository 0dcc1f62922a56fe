package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/maxviazov/afl-stats-service/internal/service"
)

// memStore is an in-memory stand-in for the write-side repositories.
// Rows are keyed by surrogate id, assigned in insertion order like the real stores.
type memStore struct {
	teams   map[int64]model.Team
	venues  map[int64]model.Venue
	players map[int64]model.Player
	games   map[int64]model.Game
	stats   map[int64]model.PlayerGameStat
	history map[int64]model.PlayerTeamHistory
	nextID  int64

	failOn string // name of the operation that returns errBoom
	txs    int
}

var errBoom = errors.New("boom")

func newMemStore() *memStore {
	return &memStore{
		teams:   map[int64]model.Team{},
		venues:  map[int64]model.Venue{},
		players: map[int64]model.Player{},
		games:   map[int64]model.Game{},
		stats:   map[int64]model.PlayerGameStat{},
		history: map[int64]model.PlayerTeamHistory{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errBoom
	}
	return nil
}

func (m *memStore) repos() service.IngestionRepos {
	return service.IngestionRepos{
		Tx:        (*memTx)(m),
		Teams:     (*memTeams)(m),
		Venues:    (*memVenues)(m),
		Players:   (*memPlayers)(m),
		Games:     (*memGames)(m),
		Stats:     (*memStats)(m),
		History:   (*memHistory)(m),
		Integrity: (*memIntegrity)(m),
	}
}

type memTx memStore

func (t *memTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	t.txs++
	return fn(ctx)
}

type memTeams memStore

func (r *memTeams) FindByExternalID(_ context.Context, ext int64) (model.Team, error) {
	for _, t := range r.teams {
		if t.ExternalID != nil && *t.ExternalID == ext {
			return t, nil
		}
	}
	return model.Team{}, repository.ErrNotFound
}

func (r *memTeams) FindByName(_ context.Context, name string) (model.Team, error) {
	for _, t := range r.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return model.Team{}, repository.ErrNotFound
}

func (r *memTeams) SetExternalID(_ context.Context, id, ext int64) error {
	t, ok := r.teams[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.ExternalID = &ext
	r.teams[id] = t
	return nil
}

func (r *memTeams) Create(_ context.Context, t model.Team) (model.Team, error) {
	if err := (*memStore)(r).fail("team.create"); err != nil {
		return model.Team{}, err
	}
	t.ID = (*memStore)(r).id()
	r.teams[t.ID] = t
	return t, nil
}

type memVenues memStore

func (r *memVenues) FindByName(_ context.Context, name string) (model.Venue, error) {
	for _, v := range r.venues {
		if v.Name == name {
			return v, nil
		}
	}
	return model.Venue{}, repository.ErrNotFound
}

func (r *memVenues) Create(_ context.Context, name string) (model.Venue, error) {
	v := model.Venue{ID: (*memStore)(r).id(), Name: name}
	r.venues[v.ID] = v
	return v, nil
}

type memPlayers memStore

func (r *memPlayers) FindByExternalID(_ context.Context, ext int64) (model.Player, error) {
	for _, p := range r.players {
		if p.ExternalID != nil && *p.ExternalID == ext {
			return p, nil
		}
	}
	return model.Player{}, repository.ErrNotFound
}

func (r *memPlayers) FindOtherByName(_ context.Context, name string, ext int64) ([]model.Player, error) {
	var out []model.Player
	for _, p := range r.players {
		if p.Name == name && p.ExternalID != nil && *p.ExternalID != ext {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPlayers) UpdateName(_ context.Context, id int64, name string) error {
	p, ok := r.players[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name = name
	r.players[id] = p
	return nil
}

func (r *memPlayers) Create(_ context.Context, p model.Player) (model.Player, error) {
	p.ID = (*memStore)(r).id()
	r.players[p.ID] = p
	return p, nil
}

type memGames memStore

func (r *memGames) FindByExternalID(_ context.Context, ext int64) (model.Game, error) {
	for _, g := range r.games {
		if g.ExternalID != nil && *g.ExternalID == ext {
			return g, nil
		}
	}
	return model.Game{}, repository.ErrNotFound
}

func sameRound(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *memGames) FindByNaturalKey(_ context.Context, k model.GameKey) (model.Game, error) {
	for _, g := range r.games {
		if g.SeasonYear == k.SeasonYear && sameRound(g.RoundNumber, k.RoundNumber) && g.Date.Equal(k.Date) &&
			g.HomeTeamID == k.HomeTeamID && g.AwayTeamID == k.AwayTeamID {
			return g, nil
		}
	}
	return model.Game{}, repository.ErrNotFound
}

func (r *memGames) SetExternalID(_ context.Context, id, ext int64) error {
	g, ok := r.games[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.ExternalID = &ext
	r.games[id] = g
	return nil
}

func (r *memGames) Create(_ context.Context, g model.Game) (model.Game, error) {
	g.ID = (*memStore)(r).id()
	r.games[g.ID] = g
	return g, nil
}

func (r *memGames) GetByID(_ context.Context, id int64) (model.Game, error) {
	g, ok := r.games[id]
	if !ok {
		return model.Game{}, repository.ErrNotFound
	}
	return g, nil
}

type memStats memStore

func (r *memStats) FindByPlayerGame(_ context.Context, playerID, gameID int64) (model.PlayerGameStat, error) {
	for _, s := range r.stats {
		if s.PlayerID == playerID && s.GameID == gameID {
			return s, nil
		}
	}
	return model.PlayerGameStat{}, repository.ErrNotFound
}

func (r *memStats) LastForPlayer(_ context.Context, playerID int64) (model.LastAppearance, error) {
	var best *model.PlayerGameStat
	for _, s := range r.stats {
		s := s
		if s.PlayerID == playerID && (best == nil || s.GameID > best.GameID) {
			best = &s
		}
	}
	if best == nil {
		return model.LastAppearance{}, repository.ErrNotFound
	}
	return model.LastAppearance{GameID: best.GameID, TeamID: best.TeamID, GameDate: r.games[best.GameID].Date}, nil
}

func (r *memStats) Create(_ context.Context, s model.PlayerGameStat) (model.PlayerGameStat, error) {
	if err := (*memStore)(r).fail("stats.create"); err != nil {
		return model.PlayerGameStat{}, err
	}
	s.ID = (*memStore)(r).id()
	r.stats[s.ID] = s
	return s, nil
}

func (r *memStats) RecomputeDaysSinceLastGame(context.Context) (int64, error) {
	if err := (*memStore)(r).fail("stats.recompute"); err != nil {
		return 0, err
	}
	return int64(len(r.stats)), nil
}

type memHistory memStore

func (r *memHistory) CloseCurrent(_ context.Context, playerID int64, end time.Time) error {
	for id, h := range r.history {
		if h.PlayerID == playerID && h.IsCurrent {
			e := end
			h.EndDate, h.IsCurrent = &e, false
			r.history[id] = h
		}
	}
	return nil
}

func (r *memHistory) Open(_ context.Context, playerID, teamID int64, start time.Time) (model.PlayerTeamHistory, error) {
	for _, h := range r.history {
		if h.PlayerID == playerID && h.IsCurrent {
			return model.PlayerTeamHistory{}, repository.ErrAlreadyExists
		}
	}
	h := model.PlayerTeamHistory{ID: (*memStore)(r).id(), PlayerID: playerID, TeamID: teamID, StartDate: start, IsCurrent: true}
	r.history[h.ID] = h
	return h, nil
}

func (r *memHistory) Current(_ context.Context, playerID int64) (model.PlayerTeamHistory, error) {
	for _, h := range r.history {
		if h.PlayerID == playerID && h.IsCurrent {
			return h, nil
		}
	}
	return model.PlayerTeamHistory{}, repository.ErrNotFound
}

func (r *memHistory) ListByPlayer(_ context.Context, playerID int64) ([]model.PlayerTeamHistory, error) {
	var out []model.PlayerTeamHistory
	for id := int64(1); id <= r.nextID; id++ {
		if h, ok := r.history[id]; ok && h.PlayerID == playerID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memIntegrity memStore

func (r *memIntegrity) FindPotentialDuplicates(context.Context) ([]model.DuplicatePlayer, error) {
	return []model.DuplicatePlayer{{Name: "Josh Kennedy", DistinctIDs: 2, TotalRecords: 2, ExternalIDs: []int64{1, 2}, PlayerIDs: []int64{3, 4}}}, nil
}

func (r *memIntegrity) RunChecks(context.Context) ([]model.IntegrityCheck, error) {
	return []model.IntegrityCheck{{Name: "duplicate_game_stats"}, {Name: "negative_stat_values", Violations: 2}}, nil
}

var (
	_ repository.TxManager             = (*memTx)(nil)
	_ repository.TeamRepository        = (*memTeams)(nil)
	_ repository.VenueRepository       = (*memVenues)(nil)
	_ repository.PlayerRepository      = (*memPlayers)(nil)
	_ repository.GameRepository        = (*memGames)(nil)
	_ repository.StatsRepository       = (*memStats)(nil)
	_ repository.TeamHistoryRepository = (*memHistory)(nil)
	_ repository.IntegrityRepository   = (*memIntegrity)(nil)
)

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func serviceErrIsInvalid(err error) bool { return errors.Is(err, service.ErrInvalidInput) }

func hasField(err error, field string) bool {
	for _, fe := range service.FieldErrors(err) {
		if fe.Field == field {
			return true
		}
	}
	return false
}
