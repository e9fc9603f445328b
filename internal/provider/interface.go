// Package provider fetches upcoming-event odds from external bookmaker
// aggregation APIs and normalizes them into bet candidates.
package provider

import (
	"context"
	"time"

	"github.com/yourusername/safe-legs/internal/models"
)

// OddsSource defines the interface for fetching candidate odds from an
// external provider.
type OddsSource interface {
	// FetchCandidates retrieves candidates for the given provider sport keys
	// with events commencing inside the window.
	FetchCandidates(ctx context.Context, sportKeys []string, from, to time.Time) ([]models.BetCandidate, error)

	// Name returns the name of the odds source
	Name() string

	// IsEnabled returns whether this odds source is currently enabled
	IsEnabled() bool
}

// ProviderError represents errors from odds source operations
type ProviderError struct {
	Source  string // Odds source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeQuotaExhausted       = "quota_exhausted"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewProviderError creates a new odds source error
func NewProviderError(source, code, message string, err error) ProviderError {
	return ProviderError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
