package service

import "errors"

// Sentinel errors for the service.
var (
	ErrNotEvaluated = errors.New("no portfolio evaluated yet")
	ErrNotFound     = errors.New("team not found")
	ErrInvalidLimit = errors.New("invalid limit")
)
