package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownTable     = errors.New("unknown table")
	ErrInvalidTableName = errors.New("invalid table name")
	ErrInvalidEntry     = errors.New("invalid entry")
	ErrNotStarted       = errors.New("service not started")
	ErrLifecycle        = errors.New("invalid lifecycle transition")
)
