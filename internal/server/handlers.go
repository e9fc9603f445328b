package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yourusername/safe-legs/internal/models"
	"github.com/yourusername/safe-legs/internal/parlay"
)

const (
	defaultLegLimit = 20
	maxLegLimit     = 100

	defaultParlayMaxLegs = 4
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxLegLimit {
		return defaultLegLimit
	}
	return limit
}

// handleValueBets returns positive-edge candidates from the current pool,
// ordered by expected value.
func (s *Server) handleValueBets(w http.ResponseWriter, r *http.Request) {
	sportParam := r.URL.Query().Get("sport")
	sport := models.Sport(sportParam)
	if sportParam != "" && !sport.IsSupported() {
		writeError(w, http.StatusBadRequest, "unsupported sport: "+sportParam)
		return
	}

	bets := s.engine.ValueBets(sport, limitParam(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"value_bets": bets,
		"count":      len(bets),
	})
}

// handleRecommendedLegs runs the pipeline and returns the ranked shortlist.
func (s *Server) handleRecommendedLegs(w http.ResponseWriter, r *http.Request) {
	legs := s.engine.RecommendedLegs(limitParam(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommended_legs": legs,
		"count":            len(legs),
	})
}

// handleSuggestedParlay searches the recommended legs for a parlay near the
// requested target odds.
func (s *Server) handleSuggestedParlay(w http.ResponseWriter, r *http.Request) {
	targetOdds, err := strconv.ParseFloat(r.URL.Query().Get("target_odds"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_odds is required and must be a number")
		return
	}

	maxLegs := defaultParlayMaxLegs
	if raw := r.URL.Query().Get("max_legs"); raw != "" {
		maxLegs, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_legs must be an integer")
			return
		}
	}

	built, err := s.engine.BuildParlay(targetOdds, maxLegs)
	switch {
	case errors.Is(err, parlay.ErrInvalidTargetOdds), errors.Is(err, parlay.ErrInvalidMaxLegs):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "parlay search failed")
	case built == nil:
		writeError(w, http.StatusNotFound, "no feasible parlay for the requested target")
	default:
		writeJSON(w, http.StatusOK, built)
	}
}

// handlePipelineStats returns the funnel counts of the most recent run.
func (s *Server) handlePipelineStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.PipelineStats())
}

// handleWeeklySummary returns the aggregated recommendation report.
func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.WeeklySummary())
}

// handleSports lists supported sports and their allowed markets.
func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	sports := make([]map[string]interface{}, 0, len(models.SupportedSports))
	for _, sport := range models.SupportedSports {
		sports = append(sports, map[string]interface{}{
			"sport":   sport,
			"markets": models.AllowedMarkets(sport),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sports": sports})
}

// handleSettings exposes the active pipeline policy constants.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Settings())
}

// handleFetch triggers an immediate odds fetch.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if s.fetchSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "fetch service is not configured")
		return
	}

	count, err := s.fetchSvc.FetchUpcoming(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Manual odds fetch failed")
		writeError(w, http.StatusBadGateway, "odds fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": count,
		"fetched_at": time.Now().UTC(),
	})
}
