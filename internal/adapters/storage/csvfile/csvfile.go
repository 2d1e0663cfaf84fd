// Package csvfile stores each table as <dir>/<table>.csv with a
// "name,score" header, one row per entry in ranked order.
//
// Saves write a temporary file in the same directory, sync it and rename it
// over the old record, so a reader or a crash never observes a half-written
// table.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/highscore/internal/domain/model"
)

const (
	ext             = ".csv"
	dirPermission   = 0o750
	filePermission  = 0o640
	headerName      = "name"
	headerScore     = "score"
	tempFilePattern = ".%s.csv.tmp-*"
)

// Store is a directory of CSV table records.
type Store struct {
	dir string
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(table string) (string, error) {
	if !model.ValidTableName(table) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return filepath.Join(s.dir, table+ext), nil
}

// Load reads the record for table. A missing file is an empty table.
func (s *Store) Load(_ context.Context, table string) ([]model.Entry, error) {
	p, err := s.path(table)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	entries, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return entries, nil
}

// Save replaces the record for table. Entries whose names would not read
// back byte for byte are rejected and the old record is kept.
func (s *Store) Save(_ context.Context, table string, entries []model.Entry) (err error) {
	p, err := s.path(table)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if !model.ValidEntryName(e.Name) {
			return fmt.Errorf("%w: row %d: %q", ErrInvalidEntryName, i+1, e.Name)
		}
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(tempFilePattern, table))
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = encode(tmp, entries); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(filePermission); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("replace %s: %w", p, err)
	}
	syncDir(s.dir)
	return nil
}

// Tables lists the tables with a record in the directory, in name order.
func (s *Store) Tables(_ context.Context) ([]string, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var names []string
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ext) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), ext)
		if model.ValidTableName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error { return nil }

func encode(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{headerName, headerScore}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Name, strconv.FormatInt(e.Score, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decode(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if header[0] != headerName || header[1] != headerScore {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrCorruptRecord, header)
	}

	entries := []model.Entry{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
		}
		score, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: score %q: %w", ErrCorruptRecord, row[1], err)
		}
		entries = append(entries, model.Entry{Name: row[0], Score: score})
	}
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
