// Package service implements the availability aggregation and showtime
// matching engine. Components receive their collaborators through
// constructors and depend only on the small interfaces declared here.
package service

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for malformed input, before any I/O happens.
// Handlers should translate this into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrProvider wraps failures of the external showtime search provider.
// They are never cached and never retried here. Handlers should translate
// this into an HTTP 502 response.
var ErrProvider = errors.New("showtime provider failed")

// ParseError reports a day or time label that could not be understood.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
