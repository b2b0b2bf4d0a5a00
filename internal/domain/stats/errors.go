package stats

import "errors"

// Sentinel kinds for statistical errors.
var (
	ErrInsufficientSamples = errors.New("insufficient samples for statistical analysis")
	ErrZeroVariance        = errors.New("sample set has zero variance")
)
