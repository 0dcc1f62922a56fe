package model

import "strings"

// Stat enumerates the statistics the over/under search can count.
type Stat int

const (
	StatDisposals Stat = iota + 1
	StatGoals
)

// ParseStat maps the public stat name onto its enumerated variant. Names are case-sensitive.
func ParseStat(s string) (Stat, bool) {
	switch strings.TrimSpace(s) {
	case "disposals":
		return StatDisposals, true
	case "goals":
		return StatGoals, true
	default:
		return 0, false
	}
}

func (s Stat) String() string {
	switch s {
	case StatDisposals:
		return "disposals"
	case StatGoals:
		return "goals"
	default:
		return "unknown"
	}
}

// Side is where the team played: the stored location string on stat rows.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// StatTally holds the raw counts for one player, stat and threshold.
// Total counts only games with a non-null value.
type StatTally struct {
	Total int
	Above int
	Equal int
}

// OverUnder is the search result: a complete partition of the counted games.
type OverUnder struct {
	Over  int `json:"over"`
	Under int `json:"under"`
}

// Partition splits a tally into over/under buckets.
// strictOver sends games equal to the threshold to under; otherwise to over.
func Partition(t StatTally, strictOver bool) OverUnder {
	over := t.Above
	if !strictOver {
		over += t.Equal
	}
	under := t.Total - over
	if under < 0 {
		under = 0
	}
	return OverUnder{Over: over, Under: under}
}
