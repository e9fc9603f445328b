// Package logger provides data-quality event logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// DataQualityLogger provides a dedicated trail for data-quality events:
// dropped candidates, imputed features, provider anomalies. These are
// operational signals, never fatal errors.
type DataQualityLogger struct {
	*logrus.Entry
}

// NewDataQualityLogger creates a new data-quality logger.
func NewDataQualityLogger(baseLogger *logrus.Logger) *DataQualityLogger {
	return &DataQualityLogger{
		Entry: baseLogger.WithField("component", "data_quality"),
	}
}

// LogCandidateDropped records a candidate rejected before entering the pipeline.
func (dq *DataQualityLogger) LogCandidateDropped(eventID, selection, reason string) {
	dq.WithFields(logrus.Fields{
		"event_id":  eventID,
		"selection": selection,
		"reason":    reason,
	}).Warn("Candidate dropped")
}

// LogFeatureImputed records a missing or out-of-range feature replaced by a
// deterministic fallback value during probability estimation.
func (dq *DataQualityLogger) LogFeatureImputed(eventID, selection, feature string, fallback float64) {
	dq.WithFields(logrus.Fields{
		"event_id":  eventID,
		"selection": selection,
		"feature":   feature,
		"fallback":  fallback,
	}).Warn("Feature imputed")
}

// LogEstimatorFallback records the estimator returning its conservative
// fallback probability instead of a model score.
func (dq *DataQualityLogger) LogEstimatorFallback(eventID, selection, reason string, fallback float64) {
	dq.WithFields(logrus.Fields{
		"event_id":  eventID,
		"selection": selection,
		"reason":    reason,
		"fallback":  fallback,
	}).Warn("Estimator fallback used")
}

// LogProviderAnomaly records malformed or suspicious provider data.
func (dq *DataQualityLogger) LogProviderAnomaly(provider, detail string) {
	dq.WithFields(logrus.Fields{
		"provider": provider,
		"detail":   detail,
	}).Warn("Provider anomaly")
}
