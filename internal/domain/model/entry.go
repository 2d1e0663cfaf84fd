// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"unicode"
)

// Entry is a single named score held by a ranked table.
// Names are not unique: the same player may appear several times.
type Entry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// Submission is an inbound score write. Token carries the client-computed
// integrity digest and is only inspected when verification is enabled.
type Submission struct {
	Name  string
	Score int64
	Token string
}

// Entry returns the score entry carried by the submission.
func (s Submission) Entry() Entry {
	return Entry{Name: s.Name, Score: s.Score}
}

// Table is the read shape of a named ranked table.
type Table struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"highscores"`
}

// MaxTableNameLen bounds table names, which double as record names on disk.
const MaxTableNameLen = 64

// ValidTableName reports whether name is usable as a table name:
// 1-64 characters from [A-Za-z0-9_-]. Names are case-sensitive.
func ValidTableName(name string) bool {
	if name == "" || len(name) > MaxTableNameLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// MaxEntryNameLen bounds player names in bytes.
const MaxEntryNameLen = 256

// ValidEntryName reports whether name is non-blank, within MaxEntryNameLen
// and free of control characters. Records are line oriented and CSV readers
// fold "\r\n" to "\n", so a control character would not survive a reload.
func ValidEntryName(name string) bool {
	if len(name) > MaxEntryNameLen || strings.TrimSpace(name) == "" {
		return false
	}
	return strings.IndexFunc(name, unicode.IsControl) < 0
}
