package navigation

import (
	"errors"
	"strings"
)

// Sentinel errors for request validation.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidLocation  = errors.New("invalid location")
)

// ValidationError describes a rejected from/to pair. Its message is shown to
// clients verbatim.
type ValidationError struct {
	// Missing is set when from or to was empty.
	Missing bool
	// Name is the first unknown location name.
	Name string
	// Valid lists the accepted location names in sorted order.
	Valid []string
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return "Missing required parameters: from and to"
	}
	return "Invalid location. Available locations: " + strings.Join(e.Valid, ", ")
}

// Unwrap maps the error onto its sentinel.
func (e *ValidationError) Unwrap() error {
	if e.Missing {
		return ErrMissingParameter
	}
	return ErrInvalidLocation
}

// Reason returns a short label for metrics.
func (e *ValidationError) Reason() string {
	if e.Missing {
		return "missing_parameter"
	}
	return "invalid_location"
}
