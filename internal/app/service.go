// Package service wires the table store, verifier and storage backend into
// the operations the HTTP API serves.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/multierr"

	"github.com/okian/highscore/internal/adapters/repository"
	"github.com/okian/highscore/internal/adapters/storage"
	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/internal/domain/secret"
	"github.com/okian/highscore/pkg/logger"
	"github.com/okian/highscore/pkg/metrics"
)

// Lifecycle states.
const (
	StateCreated = "created"
	StateStarted = "started"
	StateStopped = "stopped"
)

const (
	eventStart = "start"
	eventStop  = "stop"
)

var lifecycle = fsm.Events{
	{Name: eventStart, Src: []string{StateCreated}, Dst: StateStarted},
	{Name: eventStop, Src: []string{StateStarted}, Dst: StateStopped},
}

// Service implements the API dependencies for the highscore tables.
//
// mu is held shared by every table operation and exclusively by Start and
// Stop, so Stop waits for in-flight submissions before closing storage.
type Service struct {
	mu      sync.RWMutex
	machine *fsm.FSM

	store    *repository.Store
	backend  repository.Backend
	verifier *secret.Verifier

	// Configuration
	tables      []string
	capacity    int
	dynamic     bool
	storageKind string
	storageOpts storage.Options

	startedAt time.Time

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration: one "highscores"
// table of 100 entries, dynamic tables, no verification, in-memory storage.
func New(opts ...Option) *Service {
	s := &Service{
		machine:     fsm.NewFSM(StateCreated, lifecycle, fsm.Callbacks{}),
		verifier:    secret.NewVerifier(),
		tables:      []string{"highscores"},
		capacity:    repository.DefaultCapacity,
		dynamic:     true,
		storageKind: storage.KindMemory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the lifecycle state.
func (s *Service) State() string {
	return s.machine.Current()
}

// Start opens storage and restores the configured tables. In dynamic mode
// every table found in storage is restored as well. Calling Start on a
// started service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateStarted) {
		return nil
	}
	if !s.machine.Can(eventStart) {
		return fmt.Errorf("%w: start from %s", ErrLifecycle, s.machine.Current())
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting highscore service...")

	for _, name := range s.tables {
		if !model.ValidTableName(name) {
			return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
	}

	backend := s.backend
	if backend == nil {
		b, err := storage.Open(ctx, s.storageKind, s.storageOpts)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		backend = b
	}

	store, err := repository.New(backend,
		repository.WithCapacity(s.capacity),
		repository.WithLogger(s.logger.Named("store")),
	)
	if err != nil {
		return multierr.Append(err, backend.Close())
	}
	if err := store.Load(ctx, s.tables, s.dynamic); err != nil {
		return multierr.Append(err, backend.Close())
	}
	if err := s.machine.Event(ctx, eventStart); err != nil {
		return multierr.Append(fmt.Errorf("%w: %w", ErrLifecycle, err), backend.Close())
	}

	s.backend = backend
	s.store = store
	s.startedAt = time.Now()
	s.logger.Info(ctx, "highscore service started",
		logger.Strings("tables", store.ListTables(ctx)),
		logger.Int("capacity", s.capacity),
		logger.Bool("dynamicTables", s.dynamic),
		logger.Bool("secretRequired", s.verifier.Required()),
		logger.String("storage", s.storageKind),
	)
	return nil
}

// Stop closes storage. Stopping a service that is not running is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Is(StateStarted) {
		return nil
	}
	s.logger.Info(ctx, "stopping highscore service...")

	var result error
	if err := s.machine.Event(ctx, eventStop); err != nil {
		result = multierr.Append(result, fmt.Errorf("%w: %w", ErrLifecycle, err))
	}
	if s.store != nil {
		result = multierr.Append(result, s.store.Close())
	}

	s.logger.Info(ctx, "highscore service stopped")
	return result
}

// ready must be called with mu held.
func (s *Service) ready() error {
	if !s.machine.Is(StateStarted) {
		return fmt.Errorf("%w: %s", ErrNotStarted, s.machine.Current())
	}
	return nil
}

// ListTables returns the known table names.
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListTables(ctx), nil
}

// Snapshot returns the ranked entries of table. An unknown table is empty
// in dynamic mode and ErrUnknownTable otherwise.
func (s *Service) Snapshot(ctx context.Context, table string) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !model.ValidTableName(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	t, ok := s.store.Lookup(ctx, table)
	if !ok {
		if !s.dynamic {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
		}
		return []model.Entry{}, nil
	}
	return t.Snapshot(), nil
}

// Submit verifies sub when verification is required and ranks it into
// table. It returns whether the entry made the table and the table's
// entries afterwards.
func (s *Service) Submit(ctx context.Context, table string, sub model.Submission) (bool, []model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return false, nil, err
	}
	if !model.ValidTableName(table) {
		return false, nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	if !model.ValidEntryName(sub.Name) {
		return false, nil, fmt.Errorf("%w: name must be 1-%d bytes and not blank", ErrInvalidEntry, model.MaxEntryNameLen)
	}
	if !s.dynamic && !s.store.Exists(ctx, table) {
		return false, nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	if err := s.verifier.Check(table, sub); err != nil {
		metrics.RecordVerificationFailure(s.store.MetricsLabel(table))
		metrics.RecordErrorByComponent("secret", "verification_failed")
		s.logger.Warn(ctx, "submission rejected",
			logger.String("table", table),
			logger.String("name", sub.Name),
			logger.Int64("score", sub.Score),
			logger.Error(err),
		)
		return false, nil, err
	}

	t := s.store.GetOrCreate(ctx, table)
	accepted, err := t.Submit(ctx, sub.Entry())
	if err != nil {
		metrics.RecordErrorByComponent("storage", "persist_failed")
		s.logger.Error(ctx, "submission not persisted",
			logger.String("table", table),
			logger.Error(err),
		)
		return false, nil, err
	}

	s.logger.Debug(ctx, "submission ranked",
		logger.String("table", table),
		logger.String("name", sub.Name),
		logger.Int64("score", sub.Score),
		logger.Bool("accepted", accepted),
	)
	return accepted, t.Snapshot(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"state":          s.machine.Current(),
		"capacity":       s.capacity,
		"dynamicTables":  s.dynamic,
		"secretRequired": s.verifier.Required(),
		"storage":        s.storageKind,
	}
	if s.ready() != nil {
		return stats
	}

	ctx := context.Background()
	names := s.store.ListTables(ctx)
	sizes := make(map[string]int, len(names))
	total := 0
	for _, name := range names {
		if t, ok := s.store.Lookup(ctx, name); ok {
			sizes[name] = t.Len()
			total += sizes[name]
		}
	}
	stats["tables"] = sizes
	stats["totalTables"] = len(names)
	stats["totalEntries"] = total
	stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	return stats
}
