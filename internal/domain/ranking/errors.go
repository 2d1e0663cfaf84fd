package ranking

import "errors"

// Sentinel kinds for ranked table errors.
var (
	ErrInvalidCapacity = errors.New("table capacity must be at least 1")
	ErrStorage         = errors.New("persist table failed")
)
