package csvfile

import "errors"

// Sentinel kinds for CSV record errors.
var (
	ErrInvalidTableName = errors.New("invalid table name")
	ErrCorruptRecord    = errors.New("corrupt table record")
	ErrInvalidEntryName = errors.New("entry name cannot be stored")
)
