// Package storage selects the durable record backend behind the table store.
//
// Every backend keeps one record per table and replaces it in full on each
// Save. Entries are written and read back in ranked order.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/highscore/internal/adapters/storage/csvfile"
	"github.com/okian/highscore/internal/adapters/storage/memory"
	"github.com/okian/highscore/internal/adapters/storage/sqlite"
	"github.com/okian/highscore/internal/domain/model"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Backend persists table records.
type Backend interface {
	// Load returns the stored entries of table in stored order.
	// A table with no record yields an empty slice and no error.
	Load(ctx context.Context, table string) ([]model.Entry, error)

	// Save atomically replaces the record of table with entries.
	Save(ctx context.Context, table string, entries []model.Entry) error

	// Tables lists the tables that have a stored record.
	Tables(ctx context.Context) ([]string, error)

	Close() error
}

var (
	_ Backend = (*csvfile.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*memory.Store)(nil)
)

// Options carries backend locations.
type Options struct {
	// DataDir holds one CSV file per table for the file backend.
	DataDir string
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string
}

// Open constructs the backend named by kind.
func Open(ctx context.Context, kind string, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindFile, "":
		return csvfile.New(opts.DataDir)
	case KindSQLite:
		return sqlite.Open(ctx, opts.SQLitePath)
	case KindMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
