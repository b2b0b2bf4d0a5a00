package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidSettings = errors.New("invalid scoring settings")
	ErrInvalidBands    = errors.New("invalid category bands")
	ErrNoCohort        = errors.New("team has no cohort")
	ErrUnknownFamily   = errors.New("unknown model family")
)
