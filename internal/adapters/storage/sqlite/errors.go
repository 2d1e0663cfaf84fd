package sqlite

import "errors"

// ErrOpen marks failures while opening or initializing the database.
var ErrOpen = errors.New("open sqlite store")
