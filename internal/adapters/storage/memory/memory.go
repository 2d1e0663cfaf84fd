// Package memory keeps table records in process memory. Records do not
// survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/highscore/internal/domain/model"
)

// Store is an in-memory record backend.
type Store struct {
	mu      sync.RWMutex
	records map[string][]model.Entry
}

// New constructs an empty Store.
func New() *Store {
	return &Store{records: make(map[string][]model.Entry)}
}

// Load returns a copy of the record for table.
func (s *Store) Load(_ context.Context, table string) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.records[table]), nil
}

// Save replaces the record for table with a copy of entries.
func (s *Store) Save(_ context.Context, table string, entries []model.Entry) error {
	cp := clone(entries)
	s.mu.Lock()
	s.records[table] = cp
	s.mu.Unlock()
	return nil
}

// Tables lists stored tables in name order.
func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func clone(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	return out
}
