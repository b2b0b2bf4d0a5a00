package indicator

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid indicator catalog")
)
