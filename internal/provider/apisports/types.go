package apisports

import "encoding/json"

// envelope is the wrapper every API-Sports endpoint returns.
// errors is an empty array on success and an object keyed by error kind otherwise.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type GameDate struct {
	Timezone  string `json:"timezone"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

type GameStatus struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type GameInfo struct {
	ID     int64      `json:"id"`
	Stage  *string    `json:"stage"`
	Week   string     `json:"week"`
	Date   GameDate   `json:"date"`
	Venue  string     `json:"venue"`
	Status GameStatus `json:"status"`
}

type LeagueRef struct {
	ID     int `json:"id"`
	Season int `json:"season"`
}

type GameTeams struct {
	Home TeamRef `json:"home"`
	Away TeamRef `json:"away"`
}

// Game is one fixture from /games.
type Game struct {
	Game   GameInfo  `json:"game"`
	League LeagueRef `json:"league"`
	Teams  GameTeams `json:"teams"`
}

// Finished reports whether the game has a final result.
func (g Game) Finished() bool {
	switch g.Game.Status.Short {
	case "FT", "AOT":
		return true
	default:
		return false
	}
}

type PlayerRef struct {
	ID     int64 `json:"id"`
	Number *int  `json:"number"`
}

type GoalStats struct {
	Total   *int `json:"total"`
	Assists *int `json:"assists"`
}

// PlayerStats is one player's line in /games/statistics/players.
type PlayerStats struct {
	Player    PlayerRef `json:"player"`
	Goals     GoalStats `json:"goals"`
	Behinds   *int      `json:"behinds"`
	Disposals *int      `json:"disposals"`
	Kicks     *int      `json:"kicks"`
	Handballs *int      `json:"handballs"`
	Marks     *int      `json:"marks"`
	Tackles   *int      `json:"tackles"`
}

// TeamPlayerStats groups one team's player lines for a game.
type TeamPlayerStats struct {
	Team    TeamRef       `json:"team"`
	Players []PlayerStats `json:"players"`
}

type gamePlayerStats struct {
	Game  struct{ ID int64 } `json:"game"`
	Teams []TeamPlayerStats  `json:"teams"`
}

// Player is a row from /players.
type Player struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Number   *int    `json:"number"`
	Position *string `json:"position"`
	Age      *int    `json:"age"`
}

// Team is a row from /teams.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}
