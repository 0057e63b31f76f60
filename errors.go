package gafs

import "errors"

var (
	// ErrInvalidEstimator is returned when the wrapped estimator is missing.
	ErrInvalidEstimator = errors.New("gafs: invalid estimator")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("gafs: invalid configuration")

	// ErrInvalidInput is returned for empty, nil or non-finite input data.
	ErrInvalidInput = errors.New("gafs: invalid input")

	// ErrShapeMismatch is returned when X, y or a mask disagree on their
	// dimensions.
	ErrShapeMismatch = errors.New("gafs: shape mismatch")

	// ErrNotFitted is returned by operations that require a prior Fit.
	ErrNotFitted = errors.New("gafs: selector is not fitted")

	// ErrNoLogbook is returned when statistics were not recorded.
	ErrNoLogbook = errors.New("gafs: logbook was not recorded")
)
