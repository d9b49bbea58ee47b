package flow

import "errors"

// All of these are per-tick and recoverable. None of them should stop the
// engine from processing the next tick.
var (
	// ErrInvalidFilterWindow is returned when smoothing is requested on
	// fewer samples than the filter window, or with an unusable window.
	ErrInvalidFilterWindow = errors.New("invalid filter window")

	// ErrInsufficientBreathData is returned when fewer than two peaks or
	// onsets are available to build breath structure or a drift baseline.
	ErrInsufficientBreathData = errors.New("insufficient breath data")

	// ErrNumericFitFailure is returned when a spline or polynomial fit is
	// singular, ill-conditioned or produces non-finite values.
	ErrNumericFitFailure = errors.New("numeric fit failure")

	// ErrInvalidSample is returned for non-finite samples and samples that
	// do not advance in time.
	ErrInvalidSample = errors.New("invalid sample")

	ErrInvalidConfig = errors.New("invalid config")
)
