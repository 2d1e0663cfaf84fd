package repository

import "github.com/okian/highscore/pkg/logger"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithCapacity sets the capacity given to every table the store creates.
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		s.capacity = capacity
	}
}

// WithLogger sets the logger used for load and creation events.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}
