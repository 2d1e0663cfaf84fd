package loadgen

import "errors"

// Sentinel kinds for load run errors.
var (
	ErrConfig       = errors.New("invalid load config")
	ErrSubmit       = errors.New("submissions failed")
	ErrVerification = errors.New("ranking verification failed")
)
