package repository

import (
	"context"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// A call made while ctx already carries a transaction joins it instead of opening a new one.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// TeamRepository declares persistence primitives for teams.
// Lookups return ErrNotFound on a miss; the get-or-create flow lives in the service layer.
type TeamRepository interface {
	FindByExternalID(ctx context.Context, externalID int64) (model.Team, error)
	FindByName(ctx context.Context, name string) (model.Team, error)
	SetExternalID(ctx context.Context, id, externalID int64) error
	Create(ctx context.Context, t model.Team) (model.Team, error)
}

type VenueRepository interface {
	FindByName(ctx context.Context, name string) (model.Venue, error)
	Create(ctx context.Context, name string) (model.Venue, error)
}

// PlayerRepository declares persistence primitives for players.
type PlayerRepository interface {
	FindByExternalID(ctx context.Context, externalID int64) (model.Player, error)
	// FindOtherByName returns players with the given name whose non-null external id differs from externalID.
	FindOtherByName(ctx context.Context, name string, externalID int64) ([]model.Player, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Create(ctx context.Context, p model.Player) (model.Player, error)
}

// GameRepository declares persistence primitives for games.
type GameRepository interface {
	FindByExternalID(ctx context.Context, externalID int64) (model.Game, error)
	// FindByNaturalKey matches season, round (NULL-safe), date and both teams.
	FindByNaturalKey(ctx context.Context, key model.GameKey) (model.Game, error)
	SetExternalID(ctx context.Context, id, externalID int64) error
	Create(ctx context.Context, g model.Game) (model.Game, error)
	GetByID(ctx context.Context, id int64) (model.Game, error)
}

// StatsRepository declares operations for player stat lines per game.
type StatsRepository interface {
	FindByPlayerGame(ctx context.Context, playerID, gameID int64) (model.PlayerGameStat, error)
	// LastForPlayer returns the stat row with the highest game id for the player, ErrNotFound if none.
	LastForPlayer(ctx context.Context, playerID int64) (model.LastAppearance, error)
	Create(ctx context.Context, s model.PlayerGameStat) (model.PlayerGameStat, error)
	// RecomputeDaysSinceLastGame fills days_since_last_game for every row and reports rows touched.
	RecomputeDaysSinceLastGame(ctx context.Context) (int64, error)
}

// TeamHistoryRepository declares operations on player team intervals.
type TeamHistoryRepository interface {
	// CloseCurrent ends the player's current interval on the given date.
	CloseCurrent(ctx context.Context, playerID int64, endDate time.Time) error
	Open(ctx context.Context, playerID, teamID int64, startDate time.Time) (model.PlayerTeamHistory, error)
	Current(ctx context.Context, playerID int64) (model.PlayerTeamHistory, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]model.PlayerTeamHistory, error)
}

// QueryRepository serves the read-only over/under endpoint.
type QueryRepository interface {
	// ResolvePlayerID returns the first player id with stat rows under that exact name.
	ResolvePlayerID(ctx context.Context, name string) (int64, error)
	// TallyStat counts the player's non-null values of stat against threshold.
	TallyStat(ctx context.Context, playerID int64, stat model.Stat, threshold float64) (model.StatTally, error)
}

// IntegrityRepository exposes data-quality reports over the whole store.
type IntegrityRepository interface {
	FindPotentialDuplicates(ctx context.Context) ([]model.DuplicatePlayer, error)
	RunChecks(ctx context.Context) ([]model.IntegrityCheck, error)
}
