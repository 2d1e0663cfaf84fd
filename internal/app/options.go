package service

import (
	"github.com/okian/highscore/internal/adapters/repository"
	"github.com/okian/highscore/internal/adapters/storage"
	"github.com/okian/highscore/internal/domain/secret"
	"github.com/okian/highscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTables sets the tables registered and restored at start.
func WithTables(names ...string) Option {
	return func(s *Service) {
		s.tables = append([]string(nil), names...)
	}
}

// WithCapacity sets the capacity of every table.
func WithCapacity(capacity int) Option {
	return func(s *Service) {
		s.capacity = capacity
	}
}

// WithDynamicTables controls whether writes may create unregistered tables.
func WithDynamicTables(dynamic bool) Option {
	return func(s *Service) {
		s.dynamic = dynamic
	}
}

// WithVerifier sets the submission verifier.
func WithVerifier(v *secret.Verifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifier = v
		}
	}
}

// WithStorage selects the backend opened at start.
func WithStorage(kind string, opts storage.Options) Option {
	return func(s *Service) {
		s.storageKind = kind
		s.storageOpts = opts
	}
}

// WithBackend uses an already opened backend instead of WithStorage.
// The service closes it on Stop.
func WithBackend(b repository.Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}
