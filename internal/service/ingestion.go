package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/rs/zerolog"
)

// IngestionRepos is the write-side repository set the ingestion service coordinates.
type IngestionRepos struct {
	Tx        repository.TxManager
	Teams     repository.TeamRepository
	Venues    repository.VenueRepository
	Players   repository.PlayerRepository
	Games     repository.GameRepository
	Stats     repository.StatsRepository
	History   repository.TeamHistoryRepository
	Integrity repository.IntegrityRepository
}

type ingestionService struct {
	repos   IngestionRepos
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewIngestionService(repos IngestionRepos, m *metrics.Metrics, logger zerolog.Logger) IngestionService {
	l := logger.With().Str("module", "service").Str("component", "ingestion").Logger()
	return &ingestionService{repos: repos, metrics: m, log: l}
}

func sameExternalID(stored *int64, want int64) bool {
	return stored != nil && *stored == want
}

// GetOrCreateTeam matches by external id, then by name (backfilling the id), then inserts.
func (s *ingestionService) GetOrCreateTeam(ctx context.Context, in model.TeamInput) (int64, error) {
	name := normalizeName(in.Name)
	ferrs := checkName(nil, "team_name", name)
	if in.ExternalID != nil && *in.ExternalID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "api_team_id", Message: "must be > 0"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		return 0, err
	}

	var id int64
	outcome := metrics.OutcomeMatched
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if in.ExternalID != nil {
			t, err := s.repos.Teams.FindByExternalID(ctx, *in.ExternalID)
			if err == nil {
				id = t.ID
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		t, err := s.repos.Teams.FindByName(ctx, name)
		switch {
		case err == nil:
			id = t.ID
			if in.ExternalID != nil && !sameExternalID(t.ExternalID, *in.ExternalID) {
				if t.ExternalID != nil {
					s.log.Warn().Int64("team_id", t.ID).Int64("old_api_id", *t.ExternalID).Int64("new_api_id", *in.ExternalID).Msg("team external id replaced")
				}
				if err := s.repos.Teams.SetExternalID(ctx, t.ID, *in.ExternalID); err != nil {
					return err
				}
				outcome = metrics.OutcomeBackfilled
			}
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		created, err := s.repos.Teams.Create(ctx, model.Team{Name: name, ExternalID: in.ExternalID, IsActive: true})
		if err != nil {
			return err
		}
		id = created.ID
		outcome = metrics.OutcomeCreated
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("team_name", name).Msg("resolve team failed")
		s.metrics.RecordResolution("team", metrics.OutcomeFailed)
		return 0, err
	}
	s.metrics.RecordResolution("team", outcome)
	if outcome == metrics.OutcomeCreated {
		s.log.Debug().Int64("team_id", id).Str("team_name", name).Msg("team created")
	}
	return id, nil
}

func (s *ingestionService) GetOrCreateVenue(ctx context.Context, name string) (int64, error) {
	name = normalizeName(name)
	if err := NewInvalidInputError(checkName(nil, "venue_name", name)); err != nil {
		return 0, err
	}

	var id int64
	outcome := metrics.OutcomeMatched
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.repos.Venues.FindByName(ctx, name)
		if err == nil {
			id = v.ID
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		v, err = s.repos.Venues.Create(ctx, name)
		if err != nil {
			return err
		}
		id = v.ID
		outcome = metrics.OutcomeCreated
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("venue_name", name).Msg("resolve venue failed")
		s.metrics.RecordResolution("venue", metrics.OutcomeFailed)
		return 0, err
	}
	s.metrics.RecordResolution("venue", outcome)
	return id, nil
}

// GetOrCreatePlayer matches by external id only. A name match under a different
// external id is reported as a potential duplicate and a new row is inserted anyway.
func (s *ingestionService) GetOrCreatePlayer(ctx context.Context, in model.PlayerInput) (int64, error) {
	name := normalizeName(in.Name)
	ferrs := checkName(nil, "player_name", name)
	if in.ExternalID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "api_player_id", Message: "must be > 0"})
	}
	if in.DebutYear != nil && !isValidSeason(*in.DebutYear) {
		ferrs = append(ferrs, FieldError{Field: "debut_year", Message: "must be a valid season year"})
	}
	if err := NewInvalidInputError(ferrs); err != nil {
		return 0, err
	}

	var id int64
	outcome := metrics.OutcomeMatched
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repos.Players.FindByExternalID(ctx, in.ExternalID)
		if err == nil {
			id = p.ID
			// last write wins on the display name
			if p.Name != name {
				s.log.Info().Int64("player_id", p.ID).Str("old_name", p.Name).Str("new_name", name).Msg("player renamed")
				return s.repos.Players.UpdateName(ctx, p.ID, name)
			}
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		others, err := s.repos.Players.FindOtherByName(ctx, name, in.ExternalID)
		if err != nil {
			return err
		}
		if len(others) > 0 {
			ids := make([]int64, 0, len(others))
			for _, o := range others {
				ids = append(ids, o.ID)
			}
			s.log.Warn().Str("player_name", name).Int64("api_player_id", in.ExternalID).Ints64("existing_player_ids", ids).Msg("potential duplicate player: same name, different external id")
			s.metrics.RecordDuplicatePlayer()
		}

		ext := in.ExternalID
		created, err := s.repos.Players.Create(ctx, model.Player{
			Name:        name,
			ExternalID:  &ext,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			DateOfBirth: in.DateOfBirth,
			DebutYear:   in.DebutYear,
		})
		if err != nil {
			return err
		}
		id = created.ID
		outcome = metrics.OutcomeCreated
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("player_name", name).Int64("api_player_id", in.ExternalID).Msg("resolve player failed")
		s.metrics.RecordResolution("player", metrics.OutcomeFailed)
		return 0, err
	}
	s.metrics.RecordResolution("player", outcome)
	return id, nil
}

func validateGame(in model.GameInput) error {
	var ferrs []FieldError
	if in.ExternalID != nil && *in.ExternalID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "api_game_id", Message: "must be > 0"})
	}
	if !isValidSeason(in.SeasonYear) {
		ferrs = append(ferrs, FieldError{Field: "season_year", Message: "must be a valid season year"})
	}
	if in.RoundNumber != nil && *in.RoundNumber < 0 {
		ferrs = append(ferrs, FieldError{Field: "round_number", Message: "must be >= 0"})
	}
	if !isValidGameType(in.GameType) {
		ferrs = append(ferrs, FieldError{Field: "game_type", Message: "must be one of regular, finals"})
	}
	if in.Date.IsZero() {
		ferrs = append(ferrs, FieldError{Field: "game_date", Message: "is required"})
	}
	if !isValidGameTime(in.Time) {
		ferrs = append(ferrs, FieldError{Field: "game_time", Message: "must be HH:MM"})
	}
	if in.VenueID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "venue_id", Message: "must be > 0"})
	}
	if in.HomeTeamID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "home_team_id", Message: "must be > 0"})
	}
	if in.AwayTeamID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "away_team_id", Message: "must be > 0"})
	}
	if in.HomeTeamID > 0 && in.HomeTeamID == in.AwayTeamID {
		ferrs = append(ferrs, FieldError{Field: "away_team_id", Message: "must differ from home_team_id"})
	}
	return NewInvalidInputError(ferrs)
}

// GetOrCreateGame matches by external id, then by natural key (backfilling the id), then inserts.
func (s *ingestionService) GetOrCreateGame(ctx context.Context, in model.GameInput) (int64, error) {
	in.Date = truncateDate(in.Date)
	if err := validateGame(in); err != nil {
		return 0, err
	}

	var id int64
	outcome := metrics.OutcomeMatched
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if in.ExternalID != nil {
			g, err := s.repos.Games.FindByExternalID(ctx, *in.ExternalID)
			if err == nil {
				id = g.ID
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		g, err := s.repos.Games.FindByNaturalKey(ctx, in.Key())
		switch {
		case err == nil:
			id = g.ID
			if in.ExternalID != nil && !sameExternalID(g.ExternalID, *in.ExternalID) {
				if g.ExternalID != nil {
					s.log.Warn().Int64("game_id", g.ID).Int64("old_api_id", *g.ExternalID).Int64("new_api_id", *in.ExternalID).Msg("game external id replaced")
				}
				if err := s.repos.Games.SetExternalID(ctx, g.ID, *in.ExternalID); err != nil {
					return err
				}
				outcome = metrics.OutcomeBackfilled
			}
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		created, err := s.repos.Games.Create(ctx, model.Game{
			ExternalID:  in.ExternalID,
			SeasonYear:  in.SeasonYear,
			RoundNumber: in.RoundNumber,
			GameType:    in.GameType,
			Date:        in.Date,
			Time:        in.Time,
			VenueID:     in.VenueID,
			HomeTeamID:  in.HomeTeamID,
			AwayTeamID:  in.AwayTeamID,
		})
		if err != nil {
			return err
		}
		id = created.ID
		outcome = metrics.OutcomeCreated
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int("season", in.SeasonYear).Time("game_date", in.Date).Int64("home_team_id", in.HomeTeamID).Int64("away_team_id", in.AwayTeamID).Msg("resolve game failed")
		s.metrics.RecordResolution("game", metrics.OutcomeFailed)
		return 0, err
	}
	s.metrics.RecordResolution("game", outcome)
	return id, nil
}

func validateStat(in model.StatInput) error {
	var ferrs []FieldError
	if in.PlayerID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "player_id", Message: "must be > 0"})
	}
	if in.GameID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "game_id", Message: "must be > 0"})
	}
	if in.TeamID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "team_id", Message: "must be > 0"})
	}
	if in.OpponentTeamID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "opponent_team_id", Message: "must be > 0"})
	} else if in.OpponentTeamID == in.TeamID {
		ferrs = append(ferrs, FieldError{Field: "opponent_team_id", Message: "must differ from team_id"})
	}
	if in.VenueID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "venue_id", Message: "must be > 0"})
	}
	if !isValidSide(in.Location) {
		ferrs = append(ferrs, FieldError{Field: "location", Message: "must be one of home, away"})
	}
	if !isValidGameTime(in.GameTime) {
		ferrs = append(ferrs, FieldError{Field: "game_time", Message: "must be HH:MM"})
	}
	if negative(in.Disposals) {
		ferrs = append(ferrs, FieldError{Field: "disposals", Message: "must be >= 0"})
	}
	if negative(in.Goals) {
		ferrs = append(ferrs, FieldError{Field: "goals", Message: "must be >= 0"})
	}
	return NewInvalidInputError(ferrs)
}

// InsertPlayerStats records one stat line, keeping the player's team history in step.
// A line already stored for (player, game) is returned as-is with no side effects.
func (s *ingestionService) InsertPlayerStats(ctx context.Context, in model.StatInput) (int64, error) {
	if err := validateStat(in); err != nil {
		return 0, err
	}

	var id int64
	outcome := metrics.OutcomeCreated
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Stats.FindByPlayerGame(ctx, in.PlayerID, in.GameID)
		if err == nil {
			id = existing.ID
			outcome = metrics.OutcomeExisting
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		game, err := s.repos.Games.GetByID(ctx, in.GameID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalidField("game_id", "game does not exist")
			}
			return err
		}

		if err := s.trackTeam(ctx, in, game.Date); err != nil {
			return err
		}

		created, err := s.repos.Stats.Create(ctx, model.PlayerGameStat{
			PlayerID:       in.PlayerID,
			GameID:         in.GameID,
			TeamID:         in.TeamID,
			OpponentTeamID: in.OpponentTeamID,
			VenueID:        in.VenueID,
			Location:       in.Location,
			GameTime:       in.GameTime,
			Disposals:      in.Disposals,
			Goals:          in.Goals,
		})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("player_id", in.PlayerID).Int64("game_id", in.GameID).Msg("insert player stats failed")
		s.metrics.RecordResolution("stat", metrics.OutcomeFailed)
		return 0, err
	}
	s.metrics.RecordResolution("stat", outcome)
	return id, nil
}

// trackTeam compares the player's last appearance with this line and updates the team history.
func (s *ingestionService) trackTeam(ctx context.Context, in model.StatInput, gameDate time.Time) error {
	last, err := s.repos.Stats.LastForPlayer(ctx, in.PlayerID)
	if errors.Is(err, repository.ErrNotFound) {
		// first game: open the initial interval unless one is already open
		if _, cerr := s.repos.History.Current(ctx, in.PlayerID); cerr == nil {
			return nil
		} else if !errors.Is(cerr, repository.ErrNotFound) {
			return cerr
		}
		_, err = s.repos.History.Open(ctx, in.PlayerID, in.TeamID, gameDate)
		return err
	}
	if err != nil {
		return err
	}

	if gameDate.Before(last.GameDate) {
		s.log.Warn().Int64("player_id", in.PlayerID).Int64("game_id", in.GameID).Time("game_date", gameDate).Int64("last_game_id", last.GameID).Time("last_game_date", last.GameDate).Msg("stat line ingested out of date order")
		s.metrics.RecordOutOfOrder()
	}
	if last.TeamID == in.TeamID {
		return nil
	}

	if err := s.repos.History.CloseCurrent(ctx, in.PlayerID, gameDate); err != nil {
		return err
	}
	if _, err := s.repos.History.Open(ctx, in.PlayerID, in.TeamID, gameDate); err != nil {
		return err
	}
	s.log.Info().Int64("player_id", in.PlayerID).Int64("from_team_id", last.TeamID).Int64("to_team_id", in.TeamID).Time("game_date", gameDate).Msg("player team change recorded")
	s.metrics.RecordTeamChange()
	return nil
}

// IngestGame resolves venue, teams, game and players and inserts every line; any failure rolls the whole game back.
func (s *ingestionService) IngestGame(ctx context.Context, b model.GameBundle) (model.GameIngestResult, error) {
	start := time.Now()
	var res model.GameIngestResult
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if res.VenueID, err = s.GetOrCreateVenue(ctx, b.Venue); err != nil {
			return fmt.Errorf("venue: %w", err)
		}
		if res.HomeTeamID, err = s.GetOrCreateTeam(ctx, b.Home); err != nil {
			return fmt.Errorf("home team: %w", err)
		}
		if res.AwayTeamID, err = s.GetOrCreateTeam(ctx, b.Away); err != nil {
			return fmt.Errorf("away team: %w", err)
		}
		res.GameID, err = s.GetOrCreateGame(ctx, model.GameInput{
			ExternalID:  b.ExternalID,
			SeasonYear:  b.SeasonYear,
			RoundNumber: b.RoundNumber,
			GameType:    b.GameType,
			Date:        b.Date,
			Time:        b.Time,
			VenueID:     res.VenueID,
			HomeTeamID:  res.HomeTeamID,
			AwayTeamID:  res.AwayTeamID,
		})
		if err != nil {
			return fmt.Errorf("game: %w", err)
		}

		res.StatIDs = make([]int64, 0, len(b.Lines))
		for i, line := range b.Lines {
			playerID, err := s.GetOrCreatePlayer(ctx, line.Player)
			if err != nil {
				return fmt.Errorf("line %d player: %w", i, err)
			}
			team, opp := res.HomeTeamID, res.AwayTeamID
			if line.Side == model.SideAway {
				team, opp = opp, team
			}
			statID, err := s.InsertPlayerStats(ctx, model.StatInput{
				PlayerID:       playerID,
				GameID:         res.GameID,
				TeamID:         team,
				OpponentTeamID: opp,
				VenueID:        res.VenueID,
				Location:       line.Side,
				GameTime:       b.Time,
				Disposals:      line.Disposals,
				Goals:          line.Goals,
			})
			if err != nil {
				return fmt.Errorf("line %d stats: %w", i, err)
			}
			res.StatIDs = append(res.StatIDs, statID)
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int("season", b.SeasonYear).Time("game_date", b.Date).Msg("ingest game rolled back")
		s.metrics.RecordGameIngest(metrics.OutcomeFailed)
		return model.GameIngestResult{}, err
	}
	s.metrics.RecordGameIngest(metrics.OutcomeCreated)
	s.log.Info().Dur("took", time.Since(start)).Int64("game_id", res.GameID).Int("lines", len(res.StatIDs)).Msg("game ingested")
	return res, nil
}

func (s *ingestionService) RecomputeDaysSinceLastGame(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.repos.Stats.RecomputeDaysSinceLastGame(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("recompute days since last game failed")
		return 0, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("rows", n).Msg("days since last game recomputed")
	return n, nil
}

func (s *ingestionService) FindPotentialDuplicates(ctx context.Context) ([]model.DuplicatePlayer, error) {
	dups, err := s.repos.Integrity.FindPotentialDuplicates(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("find potential duplicates failed")
		return nil, err
	}
	for _, d := range dups {
		s.log.Warn().Str("player_name", d.Name).Ints64("api_ids", d.ExternalIDs).Ints64("player_ids", d.PlayerIDs).Msg("potential duplicate player")
	}
	return dups, nil
}

func (s *ingestionService) CheckIntegrity(ctx context.Context) ([]model.IntegrityCheck, error) {
	checks, err := s.repos.Integrity.RunChecks(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("integrity checks failed to run")
		return nil, err
	}
	failed := 0
	for _, c := range checks {
		if !c.Passed() {
			failed++
			s.log.Warn().Str("check", c.Name).Int("violations", c.Violations).Msg("integrity check failed")
		}
	}
	s.log.Info().Int("checks", len(checks)).Int("failed", failed).Msg("integrity checks completed")
	return checks, nil
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
