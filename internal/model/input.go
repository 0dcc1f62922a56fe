package model

import "time"

// TeamInput is the natural-key payload for resolving a team.
type TeamInput struct {
	Name       string
	ExternalID *int64
}

// PlayerInput is the payload for resolving a player. ExternalID is the primary match key.
type PlayerInput struct {
	Name        string
	ExternalID  int64
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	DebutYear   *int
}

// GameInput is the payload for resolving a game. Team and venue ids are already resolved.
type GameInput struct {
	ExternalID  *int64
	SeasonYear  int
	RoundNumber *int
	GameType    string
	Date        time.Time
	Time        *string
	VenueID     int64
	HomeTeamID  int64
	AwayTeamID  int64
}

// GameKey is the composite natural key used when a game has no external id match.
type GameKey struct {
	SeasonYear  int
	RoundNumber *int
	Date        time.Time
	HomeTeamID  int64
	AwayTeamID  int64
}

// Key extracts the natural key of a game payload.
func (g GameInput) Key() GameKey {
	return GameKey{
		SeasonYear:  g.SeasonYear,
		RoundNumber: g.RoundNumber,
		Date:        g.Date,
		HomeTeamID:  g.HomeTeamID,
		AwayTeamID:  g.AwayTeamID,
	}
}

// StatInput is one stat line with every reference already resolved.
type StatInput struct {
	PlayerID       int64
	GameID         int64
	TeamID         int64
	OpponentTeamID int64
	VenueID        int64
	Location       Side
	GameTime       *string
	Disposals      *int
	Goals          *int
}

// PlayerLine is a provider stat line before any id resolution.
type PlayerLine struct {
	Player    PlayerInput
	Side      Side
	Disposals *int
	Goals     *int
}

// GameBundle is one game's complete payload: venue, teams, fixture and all player lines.
type GameBundle struct {
	ExternalID  *int64
	SeasonYear  int
	RoundNumber *int
	GameType    string
	Date        time.Time
	Time        *string
	Venue       string
	Home        TeamInput
	Away        TeamInput
	Lines       []PlayerLine
}

// GameIngestResult summarizes what IngestGame resolved and wrote.
type GameIngestResult struct {
	GameID     int64
	HomeTeamID int64
	AwayTeamID int64
	VenueID    int64
	StatIDs    []int64
}
