package models

import "sort"

// Sport identifies a supported sport
type Sport string

const (
	SportBasketball       Sport = "basketball"
	SportAmericanFootball Sport = "american_football"
	SportMMA              Sport = "mixed_martial_arts"
	SportRugbyLeague      Sport = "rugby_league"
)

// SupportedSports lists every sport the pipeline accepts, in display order
var SupportedSports = []Sport{
	SportBasketball,
	SportAmericanFootball,
	SportMMA,
	SportRugbyLeague,
}

// IsSupported reports whether the sport is in the supported set
func (s Sport) IsSupported() bool {
	for _, sport := range SupportedSports {
		if s == sport {
			return true
		}
	}
	return false
}

// MarketType identifies the kind of market a candidate bets on
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotals    MarketType = "totals"

	MarketPlayerPointsOU     MarketType = "player_points_over_under"
	MarketPlayerAssistsOU    MarketType = "player_assists_over_under"
	MarketPlayerReboundsOU   MarketType = "player_rebounds_over_under"
	MarketPlayerThreesOU     MarketType = "player_threes_over_under"
	MarketPlayerBlocksOU     MarketType = "player_blocks_over_under"
	MarketPlayerStealsOU     MarketType = "player_steals_over_under"
	MarketPlayerPRAOU        MarketType = "player_pra_over_under"
	MarketPlayerDoubleDouble MarketType = "player_double_double"
	MarketAltPlayerPoints    MarketType = "alternate_player_points"
	MarketAltPlayerRebounds  MarketType = "alternate_player_rebounds"
	MarketAltPlayerAssists   MarketType = "alternate_player_assists"
	MarketAltPlayerThrees    MarketType = "alternate_player_threes"

	MarketPlayerPassTDsOU    MarketType = "player_pass_tds_over_under"
	MarketPlayerPassYardsOU  MarketType = "player_pass_yards_over_under"
	MarketPlayerRushYardsOU  MarketType = "player_rush_yards_over_under"
	MarketPlayerRecvYardsOU  MarketType = "player_receiving_yards_over_under"
	MarketPlayerReceptionsOU MarketType = "player_receptions_over_under"
	MarketPlayerAnytimeTD    MarketType = "player_anytime_touchdown"
	MarketPlayerPassCompsOU  MarketType = "player_pass_completions_over_under"
	MarketPlayerPassAttsOU   MarketType = "player_pass_attempts_over_under"
	MarketPlayerRushAttsOU   MarketType = "player_rush_attempts_over_under"
	MarketPlayerFirstTD      MarketType = "player_first_touchdown"
	MarketAltPlayerPassYards MarketType = "alternate_player_pass_yards"
	MarketAltPlayerRushYards MarketType = "alternate_player_rush_yards"
	MarketAltPlayerRecvYards MarketType = "alternate_player_receiving_yards"

	MarketMethodOfVictory MarketType = "method_of_victory"
	MarketTotalRoundsOU   MarketType = "total_rounds_over_under"

	MarketPlayerTriesOU  MarketType = "player_tries_over_under"
	MarketFirstTryScorer MarketType = "first_try_scorer"
)

// allowedMarkets is the per-sport market allow-list. Candidates carrying a
// market type outside the list for their sport are rejected before Stage 1.
var allowedMarkets = map[Sport]map[MarketType]bool{
	SportBasketball: setOf(
		MarketMoneyline,
		MarketPlayerPointsOU, MarketPlayerAssistsOU, MarketPlayerReboundsOU,
		MarketPlayerThreesOU, MarketPlayerBlocksOU, MarketPlayerStealsOU,
		MarketPlayerPRAOU, MarketPlayerDoubleDouble,
		MarketAltPlayerPoints, MarketAltPlayerRebounds, MarketAltPlayerAssists,
		MarketAltPlayerThrees,
	),
	SportAmericanFootball: setOf(
		MarketMoneyline, MarketSpread, MarketTotals,
		MarketPlayerPassTDsOU, MarketPlayerPassYardsOU, MarketPlayerRushYardsOU,
		MarketPlayerRecvYardsOU, MarketPlayerReceptionsOU, MarketPlayerAnytimeTD,
		MarketPlayerPassCompsOU, MarketPlayerPassAttsOU, MarketPlayerRushAttsOU,
		MarketPlayerFirstTD,
		MarketAltPlayerPassYards, MarketAltPlayerRushYards, MarketAltPlayerRecvYards,
	),
	SportMMA: setOf(
		MarketMoneyline, MarketMethodOfVictory, MarketTotalRoundsOU,
	),
	SportRugbyLeague: setOf(
		MarketMoneyline, MarketSpread, MarketTotals,
		MarketPlayerTriesOU, MarketFirstTryScorer,
	),
}

// MarketAllowed reports whether the market type is on the allow-list for the sport
func MarketAllowed(sport Sport, market MarketType) bool {
	markets, ok := allowedMarkets[sport]
	if !ok {
		return false
	}
	return markets[market]
}

// AllowedMarkets returns the allow-listed market types for a sport, sorted
// so callers see a stable order.
func AllowedMarkets(sport Sport) []MarketType {
	markets := allowedMarkets[sport]
	out := make([]MarketType, 0, len(markets))
	for m := range markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func setOf(markets ...MarketType) map[MarketType]bool {
	set := make(map[MarketType]bool, len(markets))
	for _, m := range markets {
		set[m] = true
	}
	return set
}
