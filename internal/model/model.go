// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behavior here is the
// over/under partition, which is pure arithmetic over counted rows.
package model

import "time"

// DateLayout is the calendar-date wire and storage format for game dates.
const DateLayout = "2006-01-02"

// Team represents an AFL club.
type Team struct {
	ID         int64  `json:"team_id"`
	Name       string `json:"team_name"`
	ExternalID *int64 `json:"api_team_id,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// Venue represents a ground where games are played.
type Venue struct {
	ID   int64  `json:"venue_id"`
	Name string `json:"venue_name"`
}

// Player represents an athlete known to the upstream provider.
type Player struct {
	ID          int64      `json:"player_id"`
	Name        string     `json:"player_name"`
	ExternalID  *int64     `json:"api_player_id,omitempty"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DebutYear   *int       `json:"debut_year,omitempty"`
}

// Game represents a single fixture between two teams.
type Game struct {
	ID          int64     `json:"game_id"`
	ExternalID  *int64    `json:"api_game_id,omitempty"`
	SeasonYear  int       `json:"season_year"`
	RoundNumber *int      `json:"round_number,omitempty"`
	GameType    string    `json:"game_type"`
	Date        time.Time `json:"game_date"`
	Time        *string   `json:"game_time,omitempty"`
	VenueID     int64     `json:"venue_id"`
	HomeTeamID  int64     `json:"home_team_id"`
	AwayTeamID  int64     `json:"away_team_id"`
}

// PlayerGameStat is one player's stat line for one game. Unique per (player, game).
type PlayerGameStat struct {
	ID                int64   `json:"stat_id"`
	PlayerID          int64   `json:"player_id"`
	GameID            int64   `json:"game_id"`
	TeamID            int64   `json:"team_id"`
	OpponentTeamID    int64   `json:"opponent_team_id"`
	VenueID           int64   `json:"venue_id"`
	Location          Side    `json:"location"`
	GameTime          *string `json:"game_time,omitempty"`
	Disposals         *int    `json:"disposals,omitempty"`
	Goals             *int    `json:"goals,omitempty"`
	DaysSinceLastGame *int    `json:"days_since_last_game,omitempty"`
}

// PlayerTeamHistory is one team interval for a player. EndDate is nil while current.
type PlayerTeamHistory struct {
	ID        int64      `json:"history_id"`
	PlayerID  int64      `json:"player_id"`
	TeamID    int64      `json:"team_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsCurrent bool       `json:"is_current"`
}

// LastAppearance is the player's most recent stat row, ordered by game surrogate id.
type LastAppearance struct {
	GameID   int64
	TeamID   int64
	GameDate time.Time
}

// DuplicatePlayer groups player rows sharing a name but carrying different external ids.
type DuplicatePlayer struct {
	Name         string   `json:"player_name"`
	DistinctIDs  int      `json:"different_api_ids"`
	TotalRecords int      `json:"total_records"`
	ExternalIDs  []int64  `json:"api_ids"`
	PlayerIDs    []int64  `json:"player_ids"`
	DatesOfBirth []string `json:"birth_dates,omitempty"`
}

// IntegrityCheck is the outcome of one data-quality rule over the store.
type IntegrityCheck struct {
	Name       string `json:"name"`
	Violations int    `json:"violations"`
}

// Passed reports whether the rule found nothing to fix.
func (c IntegrityCheck) Passed() bool { return c.Violations == 0 }
