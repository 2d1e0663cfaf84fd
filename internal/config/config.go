// Package config defines service configuration and its defaults.
//
// Values are layered: defaults from New, then an optional YAML file named by
// HIGHSCORE_CONFIG, then HIGHSCORE_* environment variables. The command line
// is applied last by the binary before Validate.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/okian/highscore/internal/adapters/storage"
	"github.com/okian/highscore/internal/domain/model"
)

// Defaults.
const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultAddr       = ":8080"
	DefaultTable      = "highscores"
	DefaultMaxSize    = 100
	DefaultDataDir    = "data"
	DefaultSQLitePath = "data/highscores.db"
)

// MaxSizeLimit caps max_size. Every accepted save rewrites the whole table
// record, so very large tables make each write proportionally slower.
const MaxSizeLimit = 100_000

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Tables are registered (and restored) at startup.
	Tables []string `koanf:"tables"`

	// MaxSize is the capacity of every table.
	MaxSize int `koanf:"max_size"`

	// SecretRequired makes every save carry a valid token.
	SecretRequired bool `koanf:"secret_required"`

	// Salt is the shared secret tokens are derived from.
	Salt string `koanf:"salt"`

	// DynamicTables lets writes create tables that were not registered.
	DynamicTables bool `koanf:"dynamic_tables"`

	// Storage selects the backend: file, sqlite or memory.
	Storage string `koanf:"storage"`

	// DataDir holds one CSV file per table for the file backend.
	DataDir string `koanf:"data_dir"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Addr:          DefaultAddr,
		Tables:        []string{DefaultTable},
		MaxSize:       DefaultMaxSize,
		DynamicTables: true,
		Storage:       storage.KindFile,
		DataDir:       DefaultDataDir,
		SQLitePath:    DefaultSQLitePath,
	}
}

// SetPort replaces the port of Addr, keeping its host.
func (c *Config) SetPort(port int) {
	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		host = ""
	}
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
}

// Normalize trims table names, drops blanks and duplicates, and lower-cases
// enum-like fields.
func (c *Config) Normalize() {
	seen := make(map[string]struct{}, len(c.Tables))
	tables := make([]string, 0, len(c.Tables))
	for _, raw := range c.Tables {
		// A single env value may still carry commas.
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			tables = append(tables, name)
		}
	}
	c.Tables = tables
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate normalizes c and reports the first invalid setting.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxSize < 1 || c.MaxSize > MaxSizeLimit {
		return fmt.Errorf("%w: max_size must be between 1 and %d (got %d)", ErrInvalidConfig, MaxSizeLimit, c.MaxSize)
	}
	if c.SecretRequired && c.Salt == "" {
		return fmt.Errorf("%w: secret_required needs a salt", ErrInvalidConfig)
	}
	for _, name := range c.Tables {
		if !model.ValidTableName(name) {
			return fmt.Errorf("%w: table name %q", ErrInvalidConfig, name)
		}
	}
	if !c.DynamicTables && len(c.Tables) == 0 {
		return fmt.Errorf("%w: dynamic_tables is off and no tables are configured", ErrInvalidConfig)
	}
	switch c.Storage {
	case storage.KindFile:
		if c.DataDir == "" {
			return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
		}
	case storage.KindSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	case storage.KindMemory:
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
