// Package loadgen drives concurrent score submissions against a running
// highscore service and checks the resulting ranking.
package loadgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/highscore/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL string        // Base URL of the service
	Table   string        // Table to submit to; a fresh name is generated when empty
	Count   int           // Number of submissions
	Workers int           // Number of concurrent workers
	Size    int           // Expected table capacity; 0 skips the length check
	Salt    string        // Salt for tokens; no token is sent when empty
	Timeout time.Duration // HTTP request timeout
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: url is required", ErrConfig)
	case c.Count < 1:
		return fmt.Errorf("%w: count must be positive", ErrConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrConfig)
	case c.Size < 0:
		return fmt.Errorf("%w: size must not be negative", ErrConfig)
	case c.Table != "" && !model.ValidTableName(c.Table):
		return fmt.Errorf("%w: invalid table name %q", ErrConfig, c.Table)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Table     string
	Submitted int
	Accepted  int
	Evicted   int
	Failed    int
	Entries   int
	Duration  time.Duration
}
