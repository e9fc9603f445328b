package models

import "errors"

// Candidate validation errors. A failing candidate is dropped with a logged
// reason; the rest of the pool continues through the pipeline.
var (
	ErrUnsupportedSport    = errors.New("unsupported sport")
	ErrMarketNotAllowed    = errors.New("market type not on allow-list for sport")
	ErrInvalidOdds         = errors.New("decimal odds must be greater than 1.0")
	ErrMissingSelection    = errors.New("selection is required")
	ErrUnconfirmedOpponent = errors.New("opponent is a placeholder and not confirmed")
	ErrEventNotUpcoming    = errors.New("event start time is not in the future")
	ErrEventTooFarAhead    = errors.New("event starts beyond the 7-day horizon")
)
