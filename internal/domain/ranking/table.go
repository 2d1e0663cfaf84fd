// Package ranking implements the bounded, score-ordered table behind every
// highscore list.
//
// Ordering: score DESC, then arrival order ASC. A new entry is placed after
// every existing entry with the same score, so ties never reorder what is
// already stored. Entries pushed past the capacity fall off the tail.
package ranking

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/pkg/metrics"
)

// Persister durably replaces the stored record of a table.
// Save must be all-or-nothing: after an error the previous record is intact.
type Persister interface {
	Save(ctx context.Context, table string, entries []model.Entry) error
}

// Table is a named ranked list with a fixed capacity.
//
// Submit holds the write lock across insert, truncate and persist, so
// mutations on one table are serialized. Snapshot takes the read lock and
// always sees a fully ranked sequence.
type Table struct {
	name      string
	label     string
	capacity  int
	persister Persister

	mu      sync.RWMutex
	entries []model.Entry
}

// New constructs a table seeded with initial, typically a record restored
// from storage. initial is copied, stably sorted by score and clipped to
// capacity, so a record saved in ranked order loads back unchanged.
func New(name string, capacity int, persister Persister, initial []model.Entry, opts ...Option) (*Table, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("table %q: %w (got %d)", name, ErrInvalidCapacity, capacity)
	}
	entries := make([]model.Entry, len(initial))
	copy(entries, initial)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > capacity {
		entries = slices.Clip(entries[:capacity])
	}
	t := &Table{
		name:      name,
		label:     name,
		capacity:  capacity,
		persister: persister,
		entries:   entries,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Option configures a Table.
type Option func(*Table)

// WithMetricsLabel sets the "table" label the table reports metrics under.
// It defaults to the table name. Per-table gauges are only kept for tables
// labelled with their own name.
func WithMetricsLabel(label string) Option {
	return func(t *Table) {
		if label != "" {
			t.label = label
		}
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// MetricsLabel returns the "table" label the table reports metrics under.
func (t *Table) MetricsLabel() string { return t.label }

// Capacity returns the maximum number of retained entries.
func (t *Table) Capacity() int { return t.capacity }

// Len returns the current number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Min returns the lowest retained score. ok is false for an empty table.
func (t *Table) Min() (score int64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return 0, false
	}
	return t.entries[len(t.entries)-1].Score, true
}

// Snapshot returns a copy of the ranked entries.
func (t *Table) Snapshot() []model.Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Submit ranks entry into the table and persists the result.
//
// It returns false when the entry did not make the cut; in that case the
// table is unchanged and nothing is written. On a persist error the table
// is also unchanged and the error wraps ErrStorage.
func (t *Table) Submit(ctx context.Context, entry model.Entry) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := insertPos(t.entries, entry.Score)
	if pos >= t.capacity {
		metrics.RecordSubmission(t.label, metrics.ResultEvicted)
		return false, nil
	}

	// A full table drops its last entry to make room.
	n := min(len(t.entries)+1, t.capacity)
	next := make([]model.Entry, 0, n)
	next = append(next, t.entries[:pos]...)
	next = append(next, entry)
	next = append(next, t.entries[pos:n-1]...)

	if t.persister != nil {
		start := time.Now()
		err := t.persister.Save(ctx, t.name, next)
		metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordStorageError(t.label)
			return false, fmt.Errorf("table %q: %w: %w", t.name, ErrStorage, err)
		}
	}

	t.entries = next
	metrics.RecordSubmission(t.label, metrics.ResultAccepted)
	if t.label == t.name {
		metrics.UpdateTableEntries(t.name, len(next))
	}
	return true, nil
}

// insertPos returns the index just past the last entry scoring >= score.
func insertPos(entries []model.Entry, score int64) int {
	return sort.Search(len(entries), func(i int) bool {
		return entries[i].Score < score
	})
}
