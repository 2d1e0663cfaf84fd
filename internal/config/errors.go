package config

import "errors"

// ErrInvalidConfig marks a setting Validate refused; ErrLoadConfig marks a
// file or environment source that could not be read.
var (
	ErrInvalidConfig = errors.New("highscore config rejected")
	ErrLoadConfig    = errors.New("highscore config unreadable")
)
