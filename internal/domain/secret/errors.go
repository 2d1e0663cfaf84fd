package secret

import (
	"errors"
	"fmt"
)

// Sentinel kinds for verification errors.
var (
	ErrVerificationFailed = errors.New("secret verification failed")
	// ErrMissingToken matches ErrVerificationFailed under errors.Is.
	ErrMissingToken = fmt.Errorf("%w: missing token", ErrVerificationFailed)
)
