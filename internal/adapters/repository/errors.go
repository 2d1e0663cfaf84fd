package repository

import "errors"

// Sentinel kinds for table store errors.
var (
	ErrNoBackend  = errors.New("table store requires a backend")
	ErrLoadTables = errors.New("load tables")
)
