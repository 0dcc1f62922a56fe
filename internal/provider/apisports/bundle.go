package apisports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maxviazov/afl-stats-service/internal/model"
)

const (
	GameTypeRegular = "regular"
	GameTypeFinals  = "finals"
)

// ErrIncompleteGame means a fixture lacks data needed to build a bundle.
var ErrIncompleteGame = errors.New("incomplete game payload")

// ParseRound maps the provider's week label onto a round number and game type.
// "Round N" is round N, "Opening Round" is round 0, anything else is a finals game without a round.
func ParseRound(week string) (*int, string) {
	w := strings.TrimSpace(week)
	if strings.EqualFold(w, "Opening Round") {
		n := 0
		return &n, GameTypeRegular
	}
	if fields := strings.Fields(w); len(fields) == 2 && strings.EqualFold(fields[0], "Round") {
		if n, err := strconv.Atoi(fields[1]); err == nil && n >= 0 {
			return &n, GameTypeRegular
		}
	}
	return nil, GameTypeFinals
}

// BuildBundle assembles one game's ingestion payload. players must hold every player id
// that appears in stats; their names become the player natural keys.
func BuildBundle(g Game, stats []TeamPlayerStats, players map[int64]Player) (model.GameBundle, error) {
	date, err := time.Parse(model.DateLayout, g.Game.Date.Date)
	if err != nil {
		return model.GameBundle{}, fmt.Errorf("%w: game %d date %q", ErrIncompleteGame, g.Game.ID, g.Game.Date.Date)
	}
	if strings.TrimSpace(g.Game.Venue) == "" {
		return model.GameBundle{}, fmt.Errorf("%w: game %d has no venue", ErrIncompleteGame, g.Game.ID)
	}

	round, gameType := ParseRound(g.Game.Week)
	gameID := g.Game.ID
	homeID, awayID := g.Teams.Home.ID, g.Teams.Away.ID
	b := model.GameBundle{
		ExternalID:  &gameID,
		SeasonYear:  g.League.Season,
		RoundNumber: round,
		GameType:    gameType,
		Date:        date,
		Venue:       g.Game.Venue,
		Home:        model.TeamInput{Name: g.Teams.Home.Name, ExternalID: &homeID},
		Away:        model.TeamInput{Name: g.Teams.Away.Name, ExternalID: &awayID},
	}
	if t := strings.TrimSpace(g.Game.Date.Time); t != "" {
		b.Time = &t
	}

	for _, team := range stats {
		var side model.Side
		switch team.Team.ID {
		case homeID:
			side = model.SideHome
		case awayID:
			side = model.SideAway
		default:
			return model.GameBundle{}, fmt.Errorf("%w: game %d has stats for team %d which did not play", ErrIncompleteGame, g.Game.ID, team.Team.ID)
		}
		for _, ps := range team.Players {
			p, ok := players[ps.Player.ID]
			if !ok {
				return model.GameBundle{}, fmt.Errorf("%w: game %d player %d has no profile", ErrIncompleteGame, g.Game.ID, ps.Player.ID)
			}
			b.Lines = append(b.Lines, model.PlayerLine{
				Player:    model.PlayerInput{Name: p.Name, ExternalID: p.ID},
				Side:      side,
				Disposals: ps.Disposals,
				Goals:     ps.Goals.Total,
			})
		}
	}
	return b, nil
}

// PlayerIDs lists the distinct player ids across all team lines, in first-seen order.
func PlayerIDs(stats []TeamPlayerStats) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, team := range stats {
		for _, ps := range team.Players {
			if _, ok := seen[ps.Player.ID]; ok {
				continue
			}
			seen[ps.Player.ID] = struct{}{}
			ids = append(ids, ps.Player.ID)
		}
	}
	return ids
}
