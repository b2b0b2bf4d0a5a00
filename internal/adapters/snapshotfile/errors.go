package snapshotfile

import "errors"

// Sentinel errors for portfolio files.
var (
	ErrDecode = errors.New("decode portfolio file")
	ErrEncode = errors.New("encode portfolio file")
)
