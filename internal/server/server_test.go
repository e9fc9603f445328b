package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safe-legs/internal/config"
	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/parlay"
	"github.com/yourusername/safe-legs/internal/pipeline"
)

type constantEstimator struct {
	prob float64
}

func (e constantEstimator) Estimate(models.BetCandidate) float64 { return e.prob }
func (e constantEstimator) Name() string                         { return "constant" }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testCandidate(i int, odds float64) models.BetCandidate {
	return models.BetCandidate{
		Sport:          models.SportBasketball,
		MarketType:     models.MarketMoneyline,
		EventID:        fmt.Sprintf("event-%03d", i),
		EventStartTime: time.Now().UTC().Add(48 * time.Hour),
		HomeTeam:       fmt.Sprintf("Home %02d", i),
		AwayTeam:       fmt.Sprintf("Away %02d", i),
		Selection:      fmt.Sprintf("Home %02d", i),
		DecimalOdds:    odds,
		Bookmaker:      "draftkings",
		FetchedAt:      time.Now().UTC(),
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engine := pipeline.NewEngine(
		constantEstimator{prob: 0.88},
		parlay.NewBuilder(parlay.DefaultSettings()),
		pipeline.DefaultSettings(),
		testLogger(),
	)
	engine.Refresh([]models.BetCandidate{
		testCandidate(1, 1.18),
		testCandidate(2, 1.22),
		testCandidate(3, 1.20),
	}, time.Now().UTC())

	return NewServer(config.ServerConfig{Port: 0}, engine, nil, testLogger())
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestRecommendedLegsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/recommended-legs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		RecommendedLegs []models.RecommendedLeg `json:"recommended_legs"`
		Count           int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.RecommendedLegs, 3)
	assert.Equal(t, 1, body.RecommendedLegs[0].Rank)
}

func TestRecommendedLegsLimit(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/recommended-legs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestValueBetsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/value-bets?sport=basketball")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ValueBets []models.ScoredCandidate `json:"value_bets"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)
}

func TestValueBetsRejectsUnknownSport(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/value-bets?sport=curling")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "curling")
}

func TestSuggestedParlayEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/suggested-parlay?target_odds=1.4&max_legs=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var built models.Parlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &built))
	assert.GreaterOrEqual(t, built.LegCount, 1)
	assert.Greater(t, built.CombinedOdds, 1.0)
}

func TestSuggestedParlayRequiresTargetOdds(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/suggested-parlay")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestedParlayRejectsBadTarget(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/suggested-parlay?target_odds=0.5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestedParlayInfeasibleReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	// Max combined odds from three short legs is far below 500.
	rec := doRequest(t, s, http.MethodGet, "/api/v1/suggested-parlay?target_odds=500&max_legs=2")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPipelineStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	// A pipeline run must happen before stats are populated.
	doRequest(t, s, http.MethodGet, "/api/v1/recommended-legs")

	rec := doRequest(t, s, http.MethodGet, "/api/v1/pipeline-stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats pipeline.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.CandidatesIn)
	assert.Equal(t, 3, stats.FinalLegsCount)
}

func TestWeeklySummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/weekly-summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.RecommendedLegsCount)
}

func TestSportsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/sports")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sports []struct {
			Sport   models.Sport        `json:"sport"`
			Markets []models.MarketType `json:"markets"`
		} `json:"sports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Sports, len(models.SupportedSports))
	for _, entry := range body.Sports {
		assert.NotEmpty(t, entry.Markets, "sport %s has no markets", entry.Sport)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/settings")
	require.Equal(t, http.StatusOK, rec.Code)

	var settings pipeline.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, pipeline.DefaultSettings().MaxOdds, settings.MaxOdds)
}

func TestFetchUnavailableWithoutService(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/fetch")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/recommended-legs")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
