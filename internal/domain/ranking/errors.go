package ranking

import "errors"

// Sentinel kinds for board errors.
var (
	ErrNotFound     = errors.New("team not on board")
	ErrInvalidLimit = errors.New("invalid board limit")
)
