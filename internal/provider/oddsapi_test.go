package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safe-legs/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.MaxRetries = 0
	return NewRateLimitedHTTPClient(cfg, testLogger())
}

const nbaOddsResponse = `[
  {
    "id": "evt-1001",
    "sport_key": "basketball_nba",
    "commence_time": "2026-01-14T00:10:00Z",
    "home_team": "Boston Celtics",
    "away_team": "Washington Wizards",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "markets": [
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Boston Celtics", "price": 1.12},
              {"name": "Washington Wizards", "price": 6.5}
            ]
          },
          {
            "key": "spreads",
            "outcomes": [
              {"name": "Boston Celtics", "price": 1.91, "point": -12.5},
              {"name": "Washington Wizards", "price": 1.91, "point": 12.5}
            ]
          },
          {
            "key": "unknown_exotic_market",
            "outcomes": [
              {"name": "Something", "price": 2.0}
            ]
          }
        ]
      }
    ]
  }
]`

// newOddsServer serves response on the bulk odds endpoint and 404s the
// per-event endpoint. hits counts bulk requests only.
func newOddsServer(t *testing.T, hits *atomic.Int64, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/events/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Query().Get("apiKey") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
}

func TestFetchCandidatesMapsOutcomes(t *testing.T) {
	server := newOddsServer(t, nil, nbaOddsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	candidates, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, from, from.Add(7*24*time.Hour))
	require.NoError(t, err)

	// Two h2h outcomes; spreads are off the basketball allow-list and the
	// exotic market key is unknown, so both are skipped.
	require.Len(t, candidates, 2)

	home := candidates[0]
	assert.Equal(t, models.SportBasketball, home.Sport)
	assert.Equal(t, models.MarketMoneyline, home.MarketType)
	assert.Equal(t, "evt-1001", home.EventID)
	assert.Equal(t, "Boston Celtics", home.Selection)
	assert.Equal(t, 1.12, home.DecimalOdds)
	assert.Equal(t, "draftkings", home.Bookmaker)
	assert.Nil(t, home.Line)
	assert.NotEqual(t, home.ID, candidates[1].ID)

	assert.Equal(t, "Washington Wizards", candidates[1].Selection)
	assert.Equal(t, 6.5, candidates[1].DecimalOdds)
}

func TestFetchCandidatesCachesPerSport(t *testing.T) {
	var hits atomic.Int64
	server := newOddsServer(t, &hits, nbaOddsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	_, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, from, to)
	require.NoError(t, err)
	_, err = client.FetchCandidates(context.Background(), []string{"basketball_nba"}, from, to)
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchCandidatesSkipsUnknownSportKey(t *testing.T) {
	var hits atomic.Int64
	server := newOddsServer(t, &hits, nbaOddsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	candidates, err := client.FetchCandidates(context.Background(), []string{"soccer_epl"}, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, hits.Load())
}

func TestFetchCandidatesDisabled(t *testing.T) {
	client := NewOddsAPIClient(testHTTPClient(), "http://unused", "key", "us", time.Minute, false, testLogger())

	_, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
}

func TestFetchCandidatesAuthFailure(t *testing.T) {
	server := newOddsServer(t, nil, nbaOddsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "", "us", time.Minute, true, testLogger())

	_, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)

	var provErr ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, ErrCodeAuthenticationFailed, provErr.Code)
}

func TestFetchCandidatesRejectsBadPrices(t *testing.T) {
	response := `[
	  {
	    "id": "evt-2",
	    "sport_key": "basketball_nba",
	    "commence_time": "2026-01-14T00:10:00Z",
	    "home_team": "A",
	    "away_team": "B",
	    "bookmakers": [
	      {"key": "bk", "title": "BK", "markets": [
	        {"key": "h2h", "outcomes": [
	          {"name": "A", "price": 1.0},
	          {"name": "B", "price": 2.4}
	        ]}
	      ]}
	    ]
	  }
	]`
	server := newOddsServer(t, nil, response)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	candidates, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "B", candidates[0].Selection)
}

const nbaEventPropsResponse = `{
  "id": "evt-1001",
  "sport_key": "basketball_nba",
  "commence_time": "2026-01-14T00:10:00Z",
  "home_team": "Boston Celtics",
  "away_team": "Washington Wizards",
  "bookmakers": [
    {"key": "draftkings", "title": "DraftKings", "markets": [
      {"key": "player_points", "outcomes": [
        {"name": "Over", "description": "Jayson Tatum", "price": 1.87, "point": 27.5},
        {"name": "Under", "description": "Jayson Tatum", "price": 1.95, "point": 27.5}
      ]}
    ]}
  ]
}`

// newPropsServer serves game odds on the bulk endpoint and prop odds on the
// per-event endpoint, recording the markets each event request asked for.
func newPropsServer(t *testing.T, oddsResponse, propsResponse string) (*httptest.Server, *[]string, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var propRequests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "/events/") {
			mu.Lock()
			propRequests = append(propRequests, r.URL.Query().Get("markets"))
			mu.Unlock()
			fmt.Fprint(w, propsResponse)
			return
		}
		fmt.Fprint(w, oddsResponse)
	}))
	return server, &propRequests, &mu
}

func TestFetchCandidatesIncludesPlayerProps(t *testing.T) {
	server, propRequests, mu := newPropsServer(t, nbaOddsResponse, nbaEventPropsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	candidates, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, from, from.Add(7*24*time.Hour))
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, *propRequests, 1)
	markets := (*propRequests)[0]
	mu.Unlock()
	assert.Contains(t, markets, "player_points")
	assert.Contains(t, markets, "player_double_double")
	assert.NotContains(t, markets, "h2h")

	// Two moneyline candidates plus the two prop outcomes.
	require.Len(t, candidates, 4)

	var prop *models.BetCandidate
	for i := range candidates {
		if candidates[i].MarketType == models.MarketPlayerPointsOU {
			prop = &candidates[i]
			break
		}
	}
	require.NotNil(t, prop, "expected a player points candidate")
	assert.Equal(t, "Jayson Tatum Over", prop.Selection)
	require.NotNil(t, prop.Line)
	assert.Equal(t, 27.5, *prop.Line)
	assert.Equal(t, 1.87, prop.DecimalOdds)
}

func TestFetchCandidatesCapsPropEvents(t *testing.T) {
	var events []string
	for i := 0; i < maxPropEvents+2; i++ {
		events = append(events, fmt.Sprintf(`{
		  "id": "evt-%d",
		  "sport_key": "basketball_nba",
		  "commence_time": "2026-01-14T00:10:00Z",
		  "home_team": "A",
		  "away_team": "B",
		  "bookmakers": []
		}`, i))
	}
	oddsResponse := "[" + strings.Join(events, ",") + "]"

	server, propRequests, mu := newPropsServer(t, oddsResponse, nbaEventPropsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	_, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	mu.Lock()
	assert.Len(t, *propRequests, maxPropEvents)
	mu.Unlock()
}

func TestFetchCandidatesSkipsFailedPropEvents(t *testing.T) {
	server := newOddsServer(t, nil, nbaOddsResponse)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(), server.URL, "key", "us", time.Minute, true, testLogger())

	from := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	candidates, err := client.FetchCandidates(context.Background(), []string{"basketball_nba"}, from, from.Add(7*24*time.Hour))
	require.NoError(t, err)

	// The event endpoint 404s, so only the game-market candidates survive.
	require.Len(t, candidates, 2)
}

func TestOutcomeSelectionUsesDescription(t *testing.T) {
	selection := outcomeSelection(oddsAPIOutcome{Name: "Over", Description: "Jayson Tatum", Point: nil})
	assert.Equal(t, "Jayson Tatum Over", selection)

	selection = outcomeSelection(oddsAPIOutcome{Name: "Boston Celtics"})
	assert.Equal(t, "Boston Celtics", selection)
}
