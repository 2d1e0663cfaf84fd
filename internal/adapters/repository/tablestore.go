// Package repository holds the registry of named ranked tables.
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"go.uber.org/multierr"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/internal/domain/ranking"
	"github.com/okian/highscore/pkg/logger"
	"github.com/okian/highscore/pkg/metrics"
)

// DefaultCapacity is the table capacity when none is configured.
const DefaultCapacity = 100

// Backend is the record storage the store restores tables from and that
// every table persists through.
type Backend interface {
	ranking.Persister
	Load(ctx context.Context, table string) ([]model.Entry, error)
	Tables(ctx context.Context) ([]string, error)
	Close() error
}

// Store maps table names to ranked tables.
//
// The registry lock only guards the map; table operations run under each
// table's own lock so unrelated tables never block each other.
type Store struct {
	mu         sync.RWMutex
	tables     *treemap.Map // string -> *ranking.Table, ordered by name
	registered map[string]struct{}

	capacity int
	backend  Backend
	log      logger.Logger
}

// New constructs an empty store over backend.
func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	s := &Store{
		tables:     treemap.NewWithStringComparator(),
		registered: make(map[string]struct{}),
		capacity:   DefaultCapacity,
		backend:    backend,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity < 1 {
		return nil, fmt.Errorf("%w (got %d)", ranking.ErrInvalidCapacity, s.capacity)
	}
	return s, nil
}

// Capacity returns the capacity of tables created by this store.
func (s *Store) Capacity() int { return s.capacity }

// ListTables returns every registered table name in name order.
func (s *Store) ListTables(_ context.Context) []string {
	s.mu.RLock()
	keys := s.tables.Keys()
	s.mu.RUnlock()

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Exists reports whether name is registered.
func (s *Store) Exists(_ context.Context, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables.Get(name)
	return ok
}

// Lookup returns the table registered under name without creating it.
func (s *Store) Lookup(_ context.Context, name string) (*ranking.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tables.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*ranking.Table), true
}

// GetOrCreate returns the table named name, registering an empty one first
// if needed. Concurrent callers for the same new name get the same table.
func (s *Store) GetOrCreate(ctx context.Context, name string) *ranking.Table {
	if t, ok := s.Lookup(ctx, name); ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.tables.Get(name); ok {
		return v.(*ranking.Table)
	}
	t, err := ranking.New(name, s.capacity, s.backend, nil, ranking.WithMetricsLabel(s.labelLocked(name)))
	if err != nil {
		// Store.New already rejected capacities below one.
		panic(fmt.Sprintf("repository: create table %q: %v", name, err))
	}
	s.tables.Put(name, t)
	metrics.UpdateTablesTotal(s.tables.Size())
	s.debug(ctx, "table created", logger.String("table", name))
	return t
}

// MetricsLabel returns the "table" metrics label for name: the name itself
// for tables passed to Load, metrics.OtherTables for the rest.
func (s *Store) MetricsLabel(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labelLocked(name)
}

func (s *Store) labelLocked(name string) string {
	if _, ok := s.registered[name]; ok {
		return name
	}
	return metrics.OtherTables
}

// Load restores names from the backend and registers them. With
// includePersisted every table the backend knows about is restored too.
// Tables already registered are left alone. All failures are combined into
// the returned error; tables that loaded cleanly stay registered.
//
// names become the configured tables: they get their own metrics series.
func (s *Store) Load(ctx context.Context, names []string, includePersisted bool) error {
	var result error

	s.mu.Lock()
	for _, name := range names {
		s.registered[name] = struct{}{}
	}
	s.mu.Unlock()

	want := append([]string(nil), names...)
	if includePersisted {
		persisted, err := s.backend.Tables(ctx)
		if err != nil {
			result = multierr.Append(result, fmt.Errorf("%w: list persisted: %w", ErrLoadTables, err))
		}
		want = append(want, persisted...)
	}

	seen := make(map[string]struct{}, len(want))
	for _, name := range want {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if s.Exists(ctx, name) {
			continue
		}
		if err := s.load(ctx, name); err != nil {
			result = multierr.Append(result, err)
		}
	}

	s.mu.RLock()
	total := s.tables.Size()
	s.mu.RUnlock()
	metrics.UpdateTablesTotal(total)
	return result
}

func (s *Store) load(ctx context.Context, name string) error {
	if !model.ValidTableName(name) {
		return fmt.Errorf("%w: invalid table name %q", ErrLoadTables, name)
	}
	entries, err := s.backend.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadTables, name, err)
	}
	label := s.MetricsLabel(name)
	t, err := ranking.New(name, s.capacity, s.backend, entries, ranking.WithMetricsLabel(label))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadTables, name, err)
	}

	s.mu.Lock()
	if _, ok := s.tables.Get(name); !ok {
		s.tables.Put(name, t)
	}
	s.mu.Unlock()

	if label == name {
		metrics.UpdateTableEntries(name, t.Len())
	}
	s.debug(ctx, "table loaded", logger.String("table", name), logger.Int("entries", t.Len()))
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) debug(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Debug(ctx, msg, fields...)
	}
}
