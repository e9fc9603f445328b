package pipeline

import (
	"strings"

	"github.com/yourusername/safe-legs/internal/models"
)

type rivalry struct {
	teamA string
	teamB string
	name  string
}

// knownRivalries is the static rivalry set per sport. Rivalry matchups carry
// historically higher upset variance, so flagged legs take a score penalty.
var knownRivalries = map[models.Sport][]rivalry{
	models.SportAmericanFootball: {
		{"Dallas Cowboys", "Philadelphia Eagles", "NFC East Rivalry"},
		{"Green Bay Packers", "Chicago Bears", "Oldest NFL Rivalry"},
		{"New England Patriots", "New York Jets", "AFC East Rivalry"},
		{"Kansas City Chiefs", "Las Vegas Raiders", "AFC West Rivalry"},
		{"San Francisco 49ers", "Seattle Seahawks", "NFC West Rivalry"},
		{"Pittsburgh Steelers", "Baltimore Ravens", "AFC North Rivalry"},
	},
	models.SportBasketball: {
		{"Los Angeles Lakers", "Boston Celtics", "Historic NBA Rivalry"},
		{"Los Angeles Lakers", "Los Angeles Clippers", "LA Battle"},
		{"Golden State Warriors", "Cleveland Cavaliers", "Finals Rivalry"},
		{"Miami Heat", "Boston Celtics", "Eastern Rivalry"},
		{"New York Knicks", "Brooklyn Nets", "Battle of the Boroughs"},
	},
	models.SportRugbyLeague: {
		{"South Sydney Rabbitohs", "Sydney Roosters", "The Book Ends Derby"},
		{"Brisbane Broncos", "North Queensland Cowboys", "Queensland Derby"},
		{"St George Illawarra Dragons", "Cronulla-Sutherland Sharks", "Southern Derby"},
		{"Wigan Warriors", "St Helens", "Good Friday Derby"},
	},
	// MMA has no standing team derbies; individual grudge matches are not
	// stable enough to maintain as a static set.
	models.SportMMA: {},
}

// LookupRivalry reports whether the matchup is a known rivalry and its name.
// Matching is substring-based in both directions so provider naming variants
// ("LA Lakers" vs "Los Angeles Lakers") still hit.
func LookupRivalry(sport models.Sport, home, away string) (string, bool) {
	if home == "" || away == "" {
		return "", false
	}
	for _, r := range knownRivalries[sport] {
		if teamsMatch(r.teamA, home) && teamsMatch(r.teamB, away) {
			return r.name, true
		}
		if teamsMatch(r.teamB, home) && teamsMatch(r.teamA, away) {
			return r.name, true
		}
	}
	return "", false
}

func teamsMatch(known, seen string) bool {
	a := strings.ToLower(known)
	b := strings.ToLower(seen)
	return strings.Contains(a, b) || strings.Contains(b, a)
}
