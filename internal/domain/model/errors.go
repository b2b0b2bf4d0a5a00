package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidPortfolio = errors.New("invalid portfolio")
	ErrInvalidWeights   = errors.New("invalid weight configuration")
	// ErrInsufficientSnapshots marks histories without a baseline-to-current interval.
	ErrInsufficientSnapshots = errors.New("insufficient snapshots")
)
