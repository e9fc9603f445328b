// Package metrics provides the centralized Prometheus metrics registry for
// the recommendation service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "pipeline_runs_total",
		Help:      "Total number of full pipeline runs",
	})
	CandidatesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "candidates_dropped_total",
		Help:      "Total number of candidates dropped before Stage 1, by reason",
	}, []string{"reason"})
	EstimatorPredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "estimator_predictions_total",
		Help:      "Total number of probability estimates produced",
	})
	EstimatorFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "estimator_fallbacks_total",
		Help:      "Total number of conservative fallback probabilities returned",
	})
	ParlayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "parlay_requests_total",
		Help:      "Total number of parlay build requests, by outcome",
	}, []string{"outcome"})
	OddsFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safe_legs",
		Name:      "odds_fetches_total",
		Help:      "Total number of odds provider fetches, by sport and status",
	}, []string{"sport", "status"})
)

// Gauge metrics
var (
	PoolCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "safe_legs",
		Name:      "pool_candidates",
		Help:      "Number of candidates in the current snapshot",
	})
	Stage1Survivors = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "safe_legs",
		Name:      "stage1_survivors",
		Help:      "Number of candidates that survived the Stage-1 numerical filter",
	})
	RecommendedLegs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "safe_legs",
		Name:      "recommended_legs",
		Help:      "Number of legs in the latest Stage-2 output",
	})
	SnapshotAgeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "safe_legs",
		Name:      "snapshot_age_seconds",
		Help:      "Age of the current candidate-pool snapshot in seconds",
	})
)

// Histogram metrics
var (
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safe_legs",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of a full pipeline run in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ParlaySearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safe_legs",
		Name:      "parlay_search_duration_seconds",
		Help:      "Duration of a parlay subset search in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	OddsFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safe_legs",
		Name:      "odds_fetch_duration_seconds",
		Help:      "Duration of odds provider fetches in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(CandidatesDroppedTotal)
		registry.MustRegister(EstimatorPredictionsTotal)
		registry.MustRegister(EstimatorFallbacksTotal)
		registry.MustRegister(ParlayRequestsTotal)
		registry.MustRegister(OddsFetchesTotal)

		// Register gauge metrics
		registry.MustRegister(PoolCandidates)
		registry.MustRegister(Stage1Survivors)
		registry.MustRegister(RecommendedLegs)
		registry.MustRegister(SnapshotAgeSeconds)

		// Register histogram metrics
		registry.MustRegister(PipelineDuration)
		registry.MustRegister(ParlaySearchDuration)
		registry.MustRegister(OddsFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPipelineRun records a completed pipeline run and its stage counts.
func RecordPipelineRun(durationSeconds float64, candidatesIn, survivors, finalLegs int) {
	PipelineRunsTotal.Inc()
	PipelineDuration.Observe(durationSeconds)
	PoolCandidates.Set(float64(candidatesIn))
	Stage1Survivors.Set(float64(survivors))
	RecommendedLegs.Set(float64(finalLegs))
}

// RecordCandidateDropped records a candidate rejected before Stage 1.
func RecordCandidateDropped(reason string) {
	CandidatesDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordParlayRequest records the outcome of a parlay build.
func RecordParlayRequest(outcome string, durationSeconds float64) {
	ParlayRequestsTotal.WithLabelValues(outcome).Inc()
	ParlaySearchDuration.Observe(durationSeconds)
}
