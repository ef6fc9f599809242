package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamRequest is returned when a provider endpoint could not be
	// reached or answered with a non-success status.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrUpstreamFormat is returned when an expected token, script block or
	// markup pattern is missing from a provider page, or matched more than once.
	// It usually means the upstream page structure changed.
	ErrUpstreamFormat = errors.New("unexpected upstream format")

	// ErrMalformedRecord is returned when a station payload lacks a required field.
	ErrMalformedRecord = errors.New("malformed station record")
)

// StatusError describes a non-success HTTP status from a provider endpoint.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s returned status %d", ErrUpstreamRequest, e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamRequest
}

// FormatErrorf builds an ErrUpstreamFormat error with extra context.
func FormatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamFormat, fmt.Sprintf(format, args...))
}

// RequestErrorf builds an ErrUpstreamRequest error with extra context.
func RequestErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstreamRequest, fmt.Sprintf(format, args...))
}

func malformedf(station int, format string, args ...any) error {
	return fmt.Errorf("%w: station %d: %s", ErrMalformedRecord, station, fmt.Sprintf(format, args...))
}
