package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrNoUpload        = fmt.Errorf("%w: uploaded count matrix", ErrNotFound)
	ErrNoResults       = fmt.Errorf("%w: differential expression results", ErrNotFound)

	// Input errors
	ErrParse         = errors.New("could not parse uploaded file")
	ErrConfiguration = errors.New("invalid analysis configuration")
	ErrThresholds    = errors.New("invalid filter thresholds")

	// Pipeline errors
	ErrComputation = errors.New("differential expression computation failed")
	ErrEmptyView   = errors.New("no genes pass the current filters")
)

// NewParseError reports a malformed upload.
func NewParseError(reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, reason, err)
	}
	return fmt.Errorf("%w: %s", ErrParse, reason)
}

// NewConfigurationError reports a selection or labeling problem that prevents a run.
func NewConfigurationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

// NewComputationError reports a failure inside the numeric pipeline.
func NewComputationError(err error) error {
	return fmt.Errorf("%w: %v", ErrComputation, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrThresholds)
}
