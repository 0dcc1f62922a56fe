package repository

import (
	"sort"

	"github.com/maxviazov/afl-stats-service/internal/model"
)

// IntegrityRule is one data-quality query; every row it returns is a violation.
// The SQL is shared by both backends, so it sticks to the common dialect subset.
type IntegrityRule struct {
	Name string
	SQL  string
}

var IntegrityRules = []IntegrityRule{
	{
		Name: "duplicate_players_same_name_and_dob",
		SQL: `SELECT player_name, date_of_birth FROM players
		      WHERE date_of_birth IS NOT NULL
		      GROUP BY player_name, date_of_birth
		      HAVING COUNT(*) > 1`,
	},
	{
		Name: "duplicate_game_stats",
		SQL: `SELECT player_id, game_id FROM player_game_stats
		      GROUP BY player_id, game_id
		      HAVING COUNT(*) > 1`,
	},
	{
		Name: "stat_team_not_in_game",
		SQL: `SELECT pgs.stat_id FROM player_game_stats pgs
		      JOIN games g ON g.game_id = pgs.game_id
		      WHERE pgs.team_id NOT IN (g.home_team_id, g.away_team_id)`,
	},
	{
		Name: "stat_opponent_is_own_team",
		SQL:  `SELECT stat_id FROM player_game_stats WHERE team_id = opponent_team_id`,
	},
	{
		Name: "stat_venue_differs_from_game",
		SQL: `SELECT pgs.stat_id FROM player_game_stats pgs
		      JOIN games g ON g.game_id = pgs.game_id
		      WHERE pgs.venue_id <> g.venue_id`,
	},
	{
		Name: "negative_stat_values",
		SQL:  `SELECT stat_id FROM player_game_stats WHERE disposals < 0 OR goals < 0`,
	},
	{
		Name: "multiple_current_teams",
		SQL: `SELECT player_id FROM player_team_history
		      WHERE is_current
		      GROUP BY player_id
		      HAVING COUNT(*) > 1`,
	},
	{
		Name: "player_with_stats_but_no_current_team",
		SQL: `SELECT DISTINCT pgs.player_id FROM player_game_stats pgs
		      WHERE NOT EXISTS (
		          SELECT 1 FROM player_team_history h
		          WHERE h.player_id = pgs.player_id AND h.is_current
		      )`,
	},
}

// CountSQL wraps a rule so the store returns only its violation count.
func (r IntegrityRule) CountSQL() string {
	return `SELECT COUNT(*) FROM (` + r.SQL + `) violations`
}

// DuplicatesSQL lists every player row whose name is shared with a different external id.
const DuplicatesSQL = `
	SELECT p.player_name, p.player_id, p.api_player_id, p.date_of_birth
	FROM players p
	WHERE p.api_player_id IS NOT NULL
	  AND p.player_name IN (
	      SELECT player_name FROM players
	      WHERE api_player_id IS NOT NULL
	      GROUP BY player_name
	      HAVING COUNT(DISTINCT api_player_id) > 1
	  )
	ORDER BY p.player_name, p.player_id`

// DuplicateRow is one row of DuplicatesSQL.
type DuplicateRow struct {
	Name        string
	PlayerID    int64
	ExternalID  int64
	DateOfBirth *string
}

// FoldDuplicates groups rows by name, most distinct external ids first, then by name.
func FoldDuplicates(rows []DuplicateRow) []model.DuplicatePlayer {
	byName := make(map[string]*model.DuplicatePlayer)
	order := make([]string, 0)
	seenExt := make(map[string]map[int64]struct{})
	seenDOB := make(map[string]map[string]struct{})

	for _, r := range rows {
		d, ok := byName[r.Name]
		if !ok {
			d = &model.DuplicatePlayer{Name: r.Name}
			byName[r.Name] = d
			order = append(order, r.Name)
			seenExt[r.Name] = make(map[int64]struct{})
			seenDOB[r.Name] = make(map[string]struct{})
		}
		d.TotalRecords++
		d.PlayerIDs = append(d.PlayerIDs, r.PlayerID)
		if _, dup := seenExt[r.Name][r.ExternalID]; !dup {
			seenExt[r.Name][r.ExternalID] = struct{}{}
			d.ExternalIDs = append(d.ExternalIDs, r.ExternalID)
		}
		if r.DateOfBirth != nil {
			if _, dup := seenDOB[r.Name][*r.DateOfBirth]; !dup {
				seenDOB[r.Name][*r.DateOfBirth] = struct{}{}
				d.DatesOfBirth = append(d.DatesOfBirth, *r.DateOfBirth)
			}
		}
	}

	out := make([]model.DuplicatePlayer, 0, len(order))
	for _, name := range order {
		d := byName[name]
		d.DistinctIDs = len(d.ExternalIDs)
		sort.Slice(d.ExternalIDs, func(i, j int) bool { return d.ExternalIDs[i] < d.ExternalIDs[j] })
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistinctIDs != out[j].DistinctIDs {
			return out[i].DistinctIDs > out[j].DistinctIDs
		}
		return out[i].Name < out[j].Name
	})
	return out
}
