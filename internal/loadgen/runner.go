package loadgen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/pkg/logger"
)

// maxReportedFailures bounds how many submission errors are logged.
const maxReportedFailures = 5

// Run submits cfg.Count scores with cfg.Workers workers, then fetches the
// table and verifies it against the submitted scores.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		cfg.Table = freshTableName()
	}
	start := time.Now()
	stats := &Stats{Table: cfg.Table}

	log.Info(ctx, "starting load run",
		logger.String("url", cfg.BaseURL),
		logger.String("table", cfg.Table),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Bool("signed", cfg.Salt != ""),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	subs := generate(cfg.Table, cfg.Count, cfg.Salt)
	submit(ctx, c, cfg, subs, stats, log)
	stats.Duration = time.Since(start)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSubmit, stats.Failed, stats.Submitted)
	}

	entries, err := c.table(ctx, cfg.Table)
	if err != nil {
		return stats, fmt.Errorf("fetch table: %w", err)
	}
	stats.Entries = len(entries)

	if err := verify(entries, subs, cfg.Size); err != nil {
		return stats, err
	}
	log.Info(ctx, "load run verified",
		logger.String("table", stats.Table),
		logger.Int("accepted", stats.Accepted),
		logger.Int("evicted", stats.Evicted),
		logger.Int("entries", stats.Entries),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// submit fans subs out to cfg.Workers workers.
func submit(ctx context.Context, c *client, cfg Config, subs []model.Submission, stats *Stats, log logger.Logger) {
	var accepted, evicted, failed atomic.Int64

	jobs := make(chan model.Submission, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				ok, err := c.save(ctx, cfg.Table, sub)
				switch {
				case err != nil:
					if failed.Add(1) <= maxReportedFailures {
						log.Warn(ctx, "submission failed", logger.String("name", sub.Name), logger.Error(err))
					}
				case ok:
					accepted.Add(1)
				default:
					evicted.Add(1)
				}
			}
		}()
	}

	sent := 0
feed:
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sub:
			sent++
		}
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = sent
	stats.Accepted = int(accepted.Load())
	stats.Evicted = int(evicted.Load())
	stats.Failed = int(failed.Load()) + len(subs) - sent
}
