package portfolio

import (
	"errors"

	"github.com/okian/pulse/internal/domain/scoring"
)

// Sentinel kinds for orchestration errors.
var (
	ErrUnknownFamily = scoring.ErrUnknownFamily
	ErrUngrouped     = errors.New("team missing from grouping")
)
