package storage

import "errors"

// Sentinel kinds for backend selection errors.
var (
	ErrUnknownBackend = errors.New("unknown storage backend")
)
