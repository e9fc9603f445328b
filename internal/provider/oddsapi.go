package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/logger"
	"github.com/yourusername/safe-legs/internal/metrics"
	"github.com/yourusername/safe-legs/internal/models"
)

const oddsAPISourceName = "the_odds_api"

// gameMarkets is the market list for the bulk per-sport odds endpoint. Prop
// markets are only served by the per-event endpoint, so they are requested
// separately for the sports listed in propMarkets.
const gameMarkets = "h2h,spreads,totals"

// maxPropEvents caps per-event prop requests per sport. Each event costs one
// request against the provider quota.
const maxPropEvents = 5

// sportKeys maps provider sport keys to internal sports.
var sportKeys = map[string]models.Sport{
	"basketball_nba":         models.SportBasketball,
	"americanfootball_nfl":   models.SportAmericanFootball,
	"mma_mixed_martial_arts": models.SportMMA,
	"rugbyleague_nrl":        models.SportRugbyLeague,
}

// marketKeys maps provider market keys to internal market types. Keys absent
// here are skipped rather than treated as errors since the provider adds
// markets without notice.
var marketKeys = map[string]models.MarketType{
	"h2h":     models.MarketMoneyline,
	"spreads": models.MarketSpread,
	"totals":  models.MarketTotals,

	"player_points":                  models.MarketPlayerPointsOU,
	"player_assists":                 models.MarketPlayerAssistsOU,
	"player_rebounds":                models.MarketPlayerReboundsOU,
	"player_threes":                  models.MarketPlayerThreesOU,
	"player_blocks":                  models.MarketPlayerBlocksOU,
	"player_steals":                  models.MarketPlayerStealsOU,
	"player_points_rebounds_assists": models.MarketPlayerPRAOU,
	"player_double_double":           models.MarketPlayerDoubleDouble,
	"alternate_player_points":        models.MarketAltPlayerPoints,
	"alternate_player_rebounds":      models.MarketAltPlayerRebounds,
	"alternate_player_assists":       models.MarketAltPlayerAssists,
	"alternate_player_threes":        models.MarketAltPlayerThrees,

	"player_pass_tds":                models.MarketPlayerPassTDsOU,
	"player_pass_yds":                models.MarketPlayerPassYardsOU,
	"player_rush_yds":                models.MarketPlayerRushYardsOU,
	"player_reception_yds":           models.MarketPlayerRecvYardsOU,
	"player_receptions":              models.MarketPlayerReceptionsOU,
	"player_anytime_td":              models.MarketPlayerAnytimeTD,
	"player_pass_completions":        models.MarketPlayerPassCompsOU,
	"player_pass_attempts":           models.MarketPlayerPassAttsOU,
	"player_rush_attempts":           models.MarketPlayerRushAttsOU,
	"player_1st_td":                  models.MarketPlayerFirstTD,
	"alternate_player_pass_yds":      models.MarketAltPlayerPassYards,
	"alternate_player_rush_yds":      models.MarketAltPlayerRushYards,
	"alternate_player_reception_yds": models.MarketAltPlayerRecvYards,

	"method_of_victory": models.MarketMethodOfVictory,
	"total_rounds":      models.MarketTotalRoundsOU,

	"player_tries":     models.MarketPlayerTriesOU,
	"first_try_scorer": models.MarketFirstTryScorer,
}

// propMarkets lists the prop market keys requested per sport through the
// per-event odds endpoint. Sports absent here get game markets only.
var propMarkets = map[string]string{
	"basketball_nba": strings.Join([]string{
		"player_points", "player_rebounds", "player_assists",
		"player_points_rebounds_assists", "player_threes", "player_blocks",
		"player_steals", "player_double_double",
		"alternate_player_points", "alternate_player_rebounds",
		"alternate_player_assists", "alternate_player_threes",
	}, ","),
	"americanfootball_nfl": strings.Join([]string{
		"player_pass_tds", "player_pass_yds", "player_rush_yds",
		"player_reception_yds", "player_receptions", "player_anytime_td",
		"player_pass_completions", "player_pass_attempts",
		"player_rush_attempts", "player_1st_td",
		"alternate_player_pass_yds", "alternate_player_rush_yds",
		"alternate_player_reception_yds",
	}, ","),
	"mma_mixed_martial_arts": strings.Join([]string{
		"method_of_victory", "total_rounds",
	}, ","),
	"rugbyleague_nrl": strings.Join([]string{
		"player_tries", "first_try_scorer",
	}, ","),
}

// OddsAPIClient implements OddsSource against The Odds API v4.
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	regions    string
	enabled    bool
	cache      *gocache.Cache
	log        *logrus.Logger
	dq         *logger.DataQualityLogger
}

// oddsAPIEvent mirrors the provider's event payload.
type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

// NewOddsAPIClient creates a client for The Odds API. Responses are cached
// per sport for cacheTTL so repeated pipeline refreshes inside the TTL do
// not burn request quota.
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, regions string, cacheTTL time.Duration, enabled bool, log *logrus.Logger) *OddsAPIClient {
	if baseURL == "" {
		baseURL = "https://api.the-odds-api.com/v4"
	}
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		regions:    regions,
		enabled:    enabled,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		log:        log,
		dq:         logger.NewDataQualityLogger(log),
	}
}

// Name returns the name of the odds source
func (c *OddsAPIClient) Name() string {
	return oddsAPISourceName
}

// IsEnabled returns whether this odds source is currently enabled
func (c *OddsAPIClient) IsEnabled() bool {
	return c.enabled
}

// FetchCandidates retrieves candidates for the given provider sport keys
// with events commencing inside the window.
func (c *OddsAPIClient) FetchCandidates(ctx context.Context, requested []string, from, to time.Time) ([]models.BetCandidate, error) {
	if !c.enabled {
		return nil, NewProviderError(oddsAPISourceName, ErrCodeNetworkError, "odds source is disabled", nil)
	}

	var candidates []models.BetCandidate
	for _, sportKey := range requested {
		sport, ok := sportKeys[sportKey]
		if !ok {
			c.dq.LogProviderAnomaly(oddsAPISourceName, fmt.Sprintf("unknown sport key %q requested", sportKey))
			continue
		}

		events, err := c.fetchSportOdds(ctx, sportKey, from, to)
		if err != nil {
			metrics.OddsFetchesTotal.WithLabelValues(sportKey, "error").Inc()
			return nil, err
		}
		metrics.OddsFetchesTotal.WithLabelValues(sportKey, "ok").Inc()

		for _, event := range events {
			candidates = append(candidates, c.eventCandidates(event, sport)...)
		}

		if markets, ok := propMarkets[sportKey]; ok {
			for _, event := range c.fetchPlayerProps(ctx, sportKey, markets, events) {
				candidates = append(candidates, c.eventCandidates(event, sport)...)
			}
		}
	}
	return candidates, nil
}

// fetchSportOdds retrieves odds for one sport, serving from cache inside the
// TTL.
func (c *OddsAPIClient) fetchSportOdds(ctx context.Context, sportKey string, from, to time.Time) ([]oddsAPIEvent, error) {
	cacheKey := fmt.Sprintf("odds:%s:%s:%s", sportKey, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]oddsAPIEvent), nil
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", gameMarkets)
	params.Set("oddsFormat", "decimal")
	params.Set("dateFormat", "iso")
	params.Set("commenceTimeFrom", from.UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("commenceTimeTo", to.UTC().Format("2006-01-02T15:04:05Z"))

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, sportKey, params.Encode())

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, NewProviderError(oddsAPISourceName, ErrCodeNetworkError, "failed to fetch odds", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, NewProviderError(oddsAPISourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case http.StatusTooManyRequests:
		return nil, NewProviderError(oddsAPISourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case http.StatusPaymentRequired:
		return nil, NewProviderError(oddsAPISourceName, ErrCodeQuotaExhausted, "request quota exhausted", nil)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, NewProviderError(oddsAPISourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var events []oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, NewProviderError(oddsAPISourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	c.cache.SetDefault(cacheKey, events)
	return events, nil
}

// fetchPlayerProps retrieves prop-market odds for up to maxPropEvents of the
// sport's events through the per-event odds endpoint. Per-event failures are
// logged and skipped so one missing payload does not lose the batch.
func (c *OddsAPIClient) fetchPlayerProps(ctx context.Context, sportKey, markets string, events []oddsAPIEvent) []oddsAPIEvent {
	cacheKey := "props:" + sportKey
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]oddsAPIEvent)
	}

	limit := len(events)
	if limit > maxPropEvents {
		limit = maxPropEvents
	}

	var out []oddsAPIEvent
	for _, event := range events[:limit] {
		if event.ID == "" {
			continue
		}
		enriched, err := c.fetchEventOdds(ctx, sportKey, event.ID, markets)
		if err != nil {
			c.dq.LogProviderAnomaly(oddsAPISourceName, fmt.Sprintf("prop fetch failed for event %s: %v", event.ID, err))
			continue
		}
		out = append(out, enriched)
	}

	if len(out) > 0 {
		c.cache.SetDefault(cacheKey, out)
	}
	return out
}

// fetchEventOdds retrieves one event's odds for the given market list.
func (c *OddsAPIClient) fetchEventOdds(ctx context.Context, sportKey, eventID, markets string) (oddsAPIEvent, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", markets)
	params.Set("oddsFormat", "decimal")

	endpoint := fmt.Sprintf("%s/sports/%s/events/%s/odds?%s", c.baseURL, sportKey, eventID, params.Encode())

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return oddsAPIEvent{}, NewProviderError(oddsAPISourceName, ErrCodeNetworkError, "failed to fetch event odds", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return oddsAPIEvent{}, NewProviderError(oddsAPISourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var event oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return oddsAPIEvent{}, NewProviderError(oddsAPISourceName, ErrCodeInvalidData, "failed to parse event odds", err)
	}
	return event, nil
}

// eventCandidates flattens one event's bookmaker/market/outcome tree into
// candidates. Outcomes with non-positive prices are logged and skipped.
func (c *OddsAPIClient) eventCandidates(event oddsAPIEvent, sport models.Sport) []models.BetCandidate {
	fetchedAt := time.Now().UTC()

	var out []models.BetCandidate
	for _, bookmaker := range event.Bookmakers {
		for _, market := range bookmaker.Markets {
			marketType, ok := marketKeys[market.Key]
			if !ok {
				continue
			}
			if !models.MarketAllowed(sport, marketType) {
				continue
			}

			for _, outcome := range market.Outcomes {
				if outcome.Price <= 1.0 {
					c.dq.LogProviderAnomaly(oddsAPISourceName, fmt.Sprintf("event %s outcome %q has price %v", event.ID, outcome.Name, outcome.Price))
					continue
				}

				out = append(out, models.BetCandidate{
					ID:             uuid.New(),
					Sport:          sport,
					MarketType:     marketType,
					EventID:        event.ID,
					EventStartTime: event.CommenceTime,
					HomeTeam:       event.HomeTeam,
					AwayTeam:       event.AwayTeam,
					Selection:      outcomeSelection(outcome),
					Line:           outcome.Point,
					DecimalOdds:    outcome.Price,
					Bookmaker:      bookmaker.Key,
					FetchedAt:      fetchedAt,
				})
			}
		}
	}
	return out
}

// outcomeSelection prefers the outcome description, which carries the player
// name on prop markets, over the generic Over/Under name.
func outcomeSelection(outcome oddsAPIOutcome) string {
	if outcome.Description != "" {
		return fmt.Sprintf("%s %s", outcome.Description, outcome.Name)
	}
	return outcome.Name
}
