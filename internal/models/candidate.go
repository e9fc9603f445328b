package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxEventDaysAhead is the horizon for events considered by the pipeline.
// Events starting later than this many days from now are out of scope.
const MaxEventDaysAhead = 7

// placeholderOpponents are strings providers use for unconfirmed participants.
// A candidate naming any of these is invalid and never enters the pipeline.
var placeholderOpponents = []string{"tba", "to be announced", "tbd", "to be determined"}

// BetCandidate represents one proposed wager on one outcome of one event.
// Candidates are constructed fresh each fetch cycle and are immutable once
// built; downstream stages attach derived fields on ScoredCandidate instead.
type BetCandidate struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	Sport           Sport              `db:"sport" json:"sport" validate:"required"`
	MarketType      MarketType         `db:"market_type" json:"market_type" validate:"required"`
	EventID         string             `db:"event_id" json:"event_id" validate:"required"`
	EventStartTime  time.Time          `db:"event_start_time" json:"event_start_time" validate:"required"`
	HomeTeam        string             `db:"home_team" json:"home_team"`
	AwayTeam        string             `db:"away_team" json:"away_team"`
	Selection       string             `db:"selection" json:"selection" validate:"required"`
	Line            *float64           `db:"line" json:"line,omitempty"`
	DecimalOdds     float64            `db:"decimal_odds" json:"decimal_odds" validate:"required,gt=1"`
	Bookmaker       string             `db:"bookmaker" json:"bookmaker"`
	ContextFeatures map[string]float64 `db:"context_features" json:"context_features,omitempty"`
	FetchedAt       time.Time          `db:"fetched_at" json:"fetched_at"`
}

// Validate checks the structural invariants a candidate must satisfy before
// entering the pipeline. Validation failures drop the single candidate; they
// never abort the batch.
func (c *BetCandidate) Validate(now time.Time) error {
	if !c.Sport.IsSupported() {
		return ErrUnsupportedSport
	}
	if !MarketAllowed(c.Sport, c.MarketType) {
		return ErrMarketNotAllowed
	}
	if c.DecimalOdds <= 1.0 {
		return ErrInvalidOdds
	}
	if c.Selection == "" {
		return ErrMissingSelection
	}
	if c.HasPlaceholderOpponent() {
		return ErrUnconfirmedOpponent
	}
	if !c.EventStartTime.After(now) {
		return ErrEventNotUpcoming
	}
	if c.EventStartTime.After(now.Add(MaxEventDaysAhead * 24 * time.Hour)) {
		return ErrEventTooFarAhead
	}
	return nil
}

// HasPlaceholderOpponent reports whether either participant is an
// unconfirmed placeholder such as "TBA" or "TBD".
func (c *BetCandidate) HasPlaceholderOpponent() bool {
	for _, name := range []string{c.HomeTeam, c.AwayTeam, c.Selection} {
		lowered := strings.ToLower(strings.TrimSpace(name))
		for _, placeholder := range placeholderOpponents {
			if lowered == placeholder {
				return true
			}
		}
	}
	return false
}

// DedupKey identifies a unique bet: same event, selection, market and line
// collapse to one candidate regardless of bookmaker.
func (c *BetCandidate) DedupKey() string {
	line := ""
	if c.Line != nil {
		line = formatLine(*c.Line)
	}
	event := c.EventID
	if event == "" {
		event = c.HomeTeam + "_vs_" + c.AwayTeam
	}
	return event + "|" + c.Selection + "|" + string(c.MarketType) + "|" + line
}

func formatLine(line float64) string {
	// Lines are quoted in halves; two decimals is exact.
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(line, 'f', 2, 64), "0"), ".")
}
